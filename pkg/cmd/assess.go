package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/assessment"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/dal"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/logging"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/pricing"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/ratio"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/valuation"
)

type assessOptions struct {
	file   string
	images int
	output string
}

type assessReport struct {
	Result         dal.AssessmentResult  `json:"result" yaml:"result"`
	Recommendation *ratio.Recommendation `json:"recommendation,omitempty" yaml:"recommendation,omitempty"`
}

func newAssessCmd() *cobra.Command {
	opts := &assessOptions{}
	cmd := &cobra.Command{
		Use:   AssessCmdName,
		Short: AssessCmdShort,
		Long:  AssessCmdLong,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			// Keep stdout for the report.
			if len(cfg.Log.OutputPaths) == 0 {
				cfg.Log.OutputPaths = []string{"stderr"}
			}
			log, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}
			defer log.Sync()

			engine := valuation.NewEngine(pricing.NewStore(cfg.Pricing))
			svc := assessment.NewService(engine, cfg.Policy, log, nil)
			return runAssess(cmd.InOrStdin(), cmd.OutOrStdout(), svc, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "-", "damage report JSON file, - for stdin")
	cmd.Flags().IntVar(&opts.images, "images", 1, "number of photos the report was made from")
	cmd.Flags().StringVarP(&opts.output, "output", "o", outputText, "output format: text, json or yaml")
	return cmd
}

func runAssess(stdin io.Reader, w io.Writer, svc *assessment.Service, opts *assessOptions) error {
	var (
		raw []byte
		err error
	)
	if opts.file == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(opts.file)
	}
	if err != nil {
		return fmt.Errorf("read damage report: %w", err)
	}

	result, err := svc.Assess(raw, opts.images)
	if err != nil {
		return err
	}
	report := assessReport{Result: result}
	if result.VehicleValuation != nil {
		rec := ratio.Recommend(result.VehicleValuation.RepairToValueRatio)
		report.Recommendation = &rec
	}

	return render(w, opts.output, report, func(w io.Writer) error {
		return writeAssessText(w, report)
	})
}

func writeAssessText(w io.Writer, r assessReport) error {
	res := r.Result
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Decision:\t%s\n", res.Decision)
	fmt.Fprintf(tw, "Reason:\t%s\n", res.DecisionReason)
	fmt.Fprintf(tw, "Severity:\t%s\n", res.OverallSeverity)
	fmt.Fprintf(tw, "Total repair cost:\t%s\n", formatRubles(rubles, res.TotalEstimatedCost))
	if res.VehicleInfo != nil && res.VehicleInfo.Make != "" {
		fmt.Fprintf(tw, "Vehicle:\t%s\n", strings.TrimSpace(strings.Join([]string{res.VehicleInfo.Make, res.VehicleInfo.Model, res.VehicleInfo.Year}, " ")))
	}
	if v := res.VehicleValuation; v != nil {
		fmt.Fprintf(tw, "Average value:\t%s\n", formatRubles(rubles, v.AverageValue))
		fmt.Fprintf(tw, "Repair to value:\t%d%%\n", v.RepairToValueRatio)
	}
	if r.Recommendation != nil {
		fmt.Fprintf(tw, "Recommendation:\t%s\n", r.Recommendation.Label)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(res.Damages) > 0 {
		fmt.Fprintln(w)
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "TYPE\tSEVERITY\tLOCATION\tCOST\tCONFIDENCE")
		for _, d := range res.Damages {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d%%\n", d.Type, d.Severity, d.Location, formatRubles(rubles, d.EstimatedCost), d.Confidence)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	for _, rec := range res.RepairRecommendations {
		fmt.Fprintf(w, "- %s\n", rec)
	}
	return nil
}
