package cmd

const (
	RootCmdName  = "autovalue"
	RootCmdShort = "Vehicle valuation and damage triage"
	RootCmdLong  = `autovalue estimates the market value of a used vehicle in rubles and
triages vision-model damage reports into auto-approve, human review or
escalation.`

	ServeCmdName  = "serve"
	ServeCmdShort = "Run the HTTP API"
	ServeCmdLong  = `Serve valuations, damage assessments and admin settings over HTTP.
Configuration comes from --config, AUTOVALUE_* environment variables and flags.`

	ValueCmdName  = "value"
	ValueCmdShort = "Estimate the value of a vehicle"
	ValueCmdLong  = `Estimate the market value range of a vehicle from brand, model, year,
mileage and condition, using the pricing settings from configuration.`

	AssessCmdName  = "assess"
	AssessCmdShort = "Triage a vision-model damage report"
	AssessCmdLong  = `Sanitize a damage report produced by a vision model, decide how it should
be handled and, when the vehicle make is known, relate repair cost to value.`
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)
