package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ghg-insights/ghg-dashboard/internal/emissions"
	"github.com/ghg-insights/ghg-dashboard/internal/emissions/forecast"
	"github.com/ghg-insights/ghg-dashboard/internal/emissions/historical"
	"github.com/ghg-insights/ghg-dashboard/internal/gateway"
)

const defaultAPI = "http://127.0.0.1:5000"

type globalOptions struct {
	api     string
	timeout time.Duration
	output  string
	verbose bool
	now     func() time.Time
}

func (o *globalOptions) client(stderr io.Writer) *gateway.Client {
	opts := []gateway.Option{gateway.WithTimeout(o.timeout)}
	if o.verbose {
		opts = append(opts, gateway.WithLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))))
	}
	return gateway.New(o.api, opts...)
}

func (o *globalOptions) validator() *emissions.Validator {
	return emissions.NewValidator(o.now)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{now: time.Now}

	rootCmd := &cobra.Command{
		Use:           "ghgctl",
		Short:         "Query historical and forecast greenhouse gas emissions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			switch opts.output {
			case outputText, outputJSON, outputYAML:
				return nil
			default:
				return fmt.Errorf("unknown output format %q (expected text, json or yaml)", opts.output)
			}
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	api := os.Getenv("GHG_API_BASE_URL")
	if api == "" {
		api = defaultAPI
	}
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.api, "api", api, "emissions API base URL")
	flags.DurationVar(&opts.timeout, "timeout", gateway.DefaultTimeout, "per request timeout")
	flags.StringVarP(&opts.output, "output", "o", outputText, "output format: text, json or yaml")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log upstream calls to stderr")

	rootCmd.AddCommand(loginCmd(opts))
	rootCmd.AddCommand(signupCmd(opts))
	rootCmd.AddCommand(historicalCmd(opts))
	rootCmd.AddCommand(forecastCmd(opts))
	rootCmd.AddCommand(overviewCmd(opts))

	return rootCmd
}

// reportError prints err once, with the upstream failure kind when there is one.
func reportError(w io.Writer, err error) {
	var fe emissions.FieldErrors
	if errors.As(err, &fe) {
		fmt.Fprintln(w, "ghgctl:", err)
		return
	}
	if kind := gateway.Kind(err); kind != gateway.KindUnknown {
		fmt.Fprintf(w, "ghgctl: %s error: %s\n", kind, gateway.Message(err))
		return
	}
	fmt.Fprintln(w, "ghgctl:", err)
}

func loginCmd(opts *globalOptions) *cobra.Command {
	var req gateway.LoginRequest
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Check credentials against the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req.Email = strings.TrimSpace(req.Email)
			resp, err := opts.client(cmd.ErrOrStderr()).Login(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printMessage(cmd.OutOrStdout(), opts.output, resp)
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func signupCmd(opts *globalOptions) *cobra.Command {
	var req gateway.SignupRequest
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register a new account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req.Name = strings.TrimSpace(req.Name)
			req.Email = strings.TrimSpace(req.Email)
			resp, err := opts.client(cmd.ErrOrStderr()).Signup(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printMessage(cmd.OutOrStdout(), opts.output, resp)
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "full name")
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password")
	cmd.Flags().StringVar(&req.ConfirmPassword, "confirm-password", "", "repeat the password")
	for _, name := range []string{"name", "email", "password", "confirm-password"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func bindHistorical(cmd *cobra.Command, q *emissions.HistoricalQuery) {
	def := emissions.DefaultHistoricalQuery()
	cmd.Flags().StringVar(&q.Country, "country", def.Country, "ISO3 country code")
	cmd.Flags().StringVar(&q.Sector, "sector", def.Sector, "sector slug")
	cmd.Flags().StringVar(&q.Gas, "gas", def.Gas, "gas: co2, ch4 or n2o")
	cmd.Flags().IntVar(&q.StartYear, "start", def.StartYear, "first year")
	cmd.Flags().IntVar(&q.EndYear, "end", def.EndYear, "last year")
}

func normalizeHistorical(q emissions.HistoricalQuery) emissions.HistoricalQuery {
	q.Country = strings.ToUpper(strings.TrimSpace(q.Country))
	q.Sector = strings.TrimSpace(q.Sector)
	q.Gas = emissions.NormalizeGas(q.Gas)
	return q
}

func loadHistorical(ctx context.Context, opts *globalOptions, client *gateway.Client, q emissions.HistoricalQuery) (historical.DashboardViewModel, error) {
	q = normalizeHistorical(q)
	if err := opts.validator().Historical(q); err != nil {
		return historical.DashboardViewModel{}, err
	}
	res, err := client.FetchHistorical(ctx, q)
	if err != nil {
		return historical.DashboardViewModel{}, err
	}
	return historical.Transform(res), nil
}

func historicalCmd(opts *globalOptions) *cobra.Command {
	var q emissions.HistoricalQuery
	cmd := &cobra.Command{
		Use:   "historical",
		Short: "Summarise historical emissions for a country and sector",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vm, err := loadHistorical(cmd.Context(), opts, opts.client(cmd.ErrOrStderr()), q)
			if err != nil {
				return err
			}
			return printHistorical(cmd.OutOrStdout(), opts.output, vm)
		},
	}
	bindHistorical(cmd, &q)
	return cmd
}

type forecastFlags struct {
	query emissions.ForecastQuery
	mode  string
	month int
}

func bindForecast(cmd *cobra.Command, f *forecastFlags, now time.Time) {
	def := emissions.DefaultForecastQuery(now)
	cmd.Flags().StringVar(&f.query.Country, "country", def.Country, "ISO3 country code")
	cmd.Flags().StringVar(&f.query.Sector, "sector", def.Sector, "sector slug")
	cmd.Flags().StringVar(&f.query.Gas, "gas", def.Gas, "gas: co2, ch4 or n2o")
	cmd.Flags().IntVar(&f.query.Year, "year", def.Year, "forecast year")
	cmd.Flags().StringVar(&f.mode, "mode", string(forecast.ModeMonthly), "comparison mode: monthly or annual")
	cmd.Flags().IntVar(&f.month, "month", 1, "month shown in monthly mode")
}

func (f forecastFlags) view() forecast.View {
	v := forecast.View{Mode: forecast.ParseMode(f.mode), Month: f.month}
	if v.Month < 1 || v.Month > forecast.Months {
		v.Month = 1
	}
	return v
}

func loadForecast(ctx context.Context, opts *globalOptions, client *gateway.Client, f forecastFlags) (forecast.ViewModel, error) {
	q := f.query
	q.Country = strings.ToUpper(strings.TrimSpace(q.Country))
	q.Sector = strings.TrimSpace(q.Sector)
	q.Gas = emissions.NormalizeGas(q.Gas)
	q.Month = 1
	if err := opts.validator().Forecast(q); err != nil {
		return forecast.ViewModel{}, err
	}
	res, err := client.FetchForecast(ctx, q)
	if err != nil {
		return forecast.ViewModel{}, err
	}
	return forecast.Transform(res, f.view()), nil
}

func forecastCmd(opts *globalOptions) *cobra.Command {
	var f forecastFlags
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Summarise the emission forecast for a year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vm, err := loadForecast(cmd.Context(), opts, opts.client(cmd.ErrOrStderr()), f)
			if err != nil {
				return err
			}
			return printForecast(cmd.OutOrStdout(), opts.output, vm)
		},
	}
	bindForecast(cmd, &f, opts.now())
	return cmd
}

// Overview is the combined result of the overview command.
type Overview struct {
	Historical historical.DashboardViewModel `json:"historical" yaml:"historical"`
	Forecast   forecast.ViewModel            `json:"forecast" yaml:"forecast"`
}

func overviewCmd(opts *globalOptions) *cobra.Command {
	var (
		hq emissions.HistoricalQuery
		ff forecastFlags
	)
	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Fetch the historical summary and the forecast together",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := opts.client(cmd.ErrOrStderr())
			// both screens describe the same country and sector
			ff.query.Country, ff.query.Sector, ff.query.Gas = hq.Country, hq.Sector, hq.Gas

			var out Overview
			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				vm, err := loadHistorical(ctx, opts, client, hq)
				if err != nil {
					return fmt.Errorf("historical: %w", err)
				}
				out.Historical = vm
				return nil
			})
			g.Go(func() error {
				vm, err := loadForecast(ctx, opts, client, ff)
				if err != nil {
					return fmt.Errorf("forecast: %w", err)
				}
				out.Forecast = vm
				return nil
			})
			if err := g.Wait(); err != nil {
				return err
			}
			return printOverview(cmd.OutOrStdout(), opts.output, out)
		},
	}
	bindHistorical(cmd, &hq)
	now := opts.now()
	cmd.Flags().IntVar(&ff.query.Year, "year", now.Year(), "forecast year")
	cmd.Flags().StringVar(&ff.mode, "mode", string(forecast.ModeMonthly), "comparison mode: monthly or annual")
	cmd.Flags().IntVar(&ff.month, "month", 1, "month shown in monthly mode")
	return cmd
}
