package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/dal"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/pricing"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/valuation"
)

type valueOptions struct {
	brand     string
	model     string
	year      int
	mileage   int
	condition string
	output    string
}

type valueReport struct {
	Vehicle   dal.VehicleAttributes `json:"vehicle" yaml:"vehicle"`
	Valuation dal.ValuationResult   `json:"valuation" yaml:"valuation"`
}

func newValueCmd() *cobra.Command {
	opts := &valueOptions{}
	cmd := &cobra.Command{
		Use:   ValueCmdName,
		Short: ValueCmdShort,
		Long:  ValueCmdLong,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			engine := valuation.NewEngine(pricing.NewStore(cfg.Pricing))
			return runValue(cmd.OutOrStdout(), engine, opts)
		},
	}

	cmd.Flags().StringVar(&opts.brand, "brand", "", "vehicle brand, e.g. Toyota")
	cmd.Flags().StringVar(&opts.model, "model", "", "vehicle model")
	cmd.Flags().IntVar(&opts.year, "year", 0, "model year; 0 assumes a five year old car")
	cmd.Flags().IntVar(&opts.mileage, "mileage", -1, "odometer in km; negative means unknown")
	cmd.Flags().StringVar(&opts.condition, "condition", string(dal.ConditionGood), "excellent, good, fair or poor")
	cmd.Flags().StringVarP(&opts.output, "output", "o", outputText, "output format: text, json or yaml")
	_ = cmd.MarkFlagRequired("brand")
	return cmd
}

func (o *valueOptions) attributes() (dal.VehicleAttributes, error) {
	cond := dal.Condition(o.condition)
	if !cond.Valid() {
		return dal.VehicleAttributes{}, fmt.Errorf("invalid condition %q, want one of %v", o.condition, dal.Conditions)
	}
	v := dal.VehicleAttributes{Brand: o.brand, Model: o.model, Condition: cond}
	if o.year > 0 {
		year := o.year
		v.Year = &year
	}
	if o.mileage >= 0 {
		mileage := o.mileage
		v.Mileage = &mileage
	}
	return v, nil
}

func runValue(w io.Writer, engine *valuation.Engine, opts *valueOptions) error {
	attrs, err := opts.attributes()
	if err != nil {
		return err
	}
	report := valueReport{Vehicle: attrs, Valuation: engine.CalculateValue(attrs)}

	return render(w, opts.output, report, func(w io.Writer) error {
		return writeValueText(w, report)
	})
}

func writeValueText(w io.Writer, r valueReport) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Vehicle:\t%s %s\n", r.Vehicle.Brand, r.Vehicle.Model)
	fmt.Fprintf(tw, "Condition:\t%s\n", r.Vehicle.Condition)
	fmt.Fprintf(tw, "Age (years):\t%d\n", r.Valuation.DepreciationYears)
	fmt.Fprintf(tw, "Premium brand:\t%t\n", r.Valuation.IsPremiumBrand)
	fmt.Fprintf(tw, "Minimum:\t%s\n", formatRubles(rubles, r.Valuation.EstimatedValueMin))
	fmt.Fprintf(tw, "Average:\t%s\n", formatRubles(rubles, r.Valuation.AverageValue))
	fmt.Fprintf(tw, "Maximum:\t%s\n", formatRubles(rubles, r.Valuation.EstimatedValueMax))
	return tw.Flush()
}
