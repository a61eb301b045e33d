package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"cardauth/internal/authorization"
	"cardauth/internal/authorization/policy"
	jwttoken "cardauth/internal/jwt_token"
	"cardauth/internal/platform/config"
	"cardauth/internal/platform/logger"
	"cardauth/internal/simulation"
	"cardauth/pkg/money"
	"cardauth/pkg/requestcontext"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cardauthctl",
		Short:         "Operator tool for the cardauth authorization service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(policyCmd())
	root.AddCommand(scenariosCmd())
	root.AddCommand(simulateCmd())
	root.AddCommand(tokenCmd())
	return root
}

func policyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect spending policies",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate [path]",
		Short: "Parse and validate a policy file (the embedded default without a path)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := policy.FileSource{}
			if len(args) == 1 {
				src.Path = args[0]
			}
			cfg, err := src.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s: %w", src.Describe(), err)
			}
			printPolicy(cmd.OutOrStdout(), src.Describe(), cfg)
			return nil
		},
	})
	return cmd
}

func printPolicy(w io.Writer, source string, cfg *authorization.PolicyConfig) {
	fmt.Fprintf(w, "policy %q version %q from %s is valid\n", cfg.Name, cfg.Version, source)
	currency := cfg.Currency
	if currency == "" {
		currency = "any"
	}
	fmt.Fprintf(w, "  currency:          %s (strict=%t)\n", currency, cfg.StrictCurrency)
	fmt.Fprintf(w, "  blocked merchants: %d\n", len(cfg.BlockedMerchants))
	fmt.Fprintf(w, "  allowed merchants: %d\n", len(cfg.AllowedMerchants))
	fmt.Fprintf(w, "  category rules:    %d\n", len(cfg.CategoryRules))
	for _, l := range cfg.Limits {
		fmt.Fprintf(w, "  %-7s limit:     %s\n", l.Period, money.Format(l.MaxAmount, cfg.Currency))
	}
}

func scenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List the built-in simulation scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tMERCHANT\tMCC\tAMOUNT\tEXPECTED")
			for _, sc := range simulation.Scenarios() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					sc.Key, sc.Merchant.Name, sc.Merchant.CategoryCode,
					money.Format(sc.Amount, sc.Currency), sc.Expected)
			}
			return tw.Flush()
		},
	}
}

// policyDecider evaluates against a fixed policy without a provider.
type policyDecider struct {
	policy *authorization.PolicyConfig
}

func (d policyDecider) Decide(ctx context.Context, req authorization.Request) (authorization.Decision, error) {
	return authorization.Evaluate(req, d.policy, requestcontext.Now(ctx))
}

type simulateOutput struct {
	Scenario       string                `json:"scenario"`
	Outcome        authorization.Outcome `json:"outcome"`
	Expected       authorization.Outcome `json:"expected"`
	Matches        bool                  `json:"matches"`
	Reason         string                `json:"reason,omitempty"`
	ApprovedAmount int64                 `json:"approved_amount"`
	PolicyVersion  string                `json:"policy_version"`
}

func simulateCmd() *cobra.Command {
	var (
		policyPath string
		asJSON     bool
		strict     bool
	)
	cmd := &cobra.Command{
		Use:   "simulate [scenario...]",
		Short: "Evaluate scenarios offline against a policy (all scenarios without arguments)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			src := policy.FileSource{Path: policyPath}
			cfg, err := src.Load(ctx)
			if err != nil {
				return fmt.Errorf("%s: %w", src.Describe(), err)
			}
			if len(args) == 0 {
				args = simulation.Keys()
			}

			log := logger.NewWithWriter(cmd.ErrOrStderr(), "warn")
			sim := simulation.NewService(policyDecider{policy: cfg}, nil, log)
			ctx = requestcontext.WithTime(ctx, time.Now().UTC())

			results := make([]simulateOutput, 0, len(args))
			matched := 0
			for _, key := range args {
				res, err := sim.RunScenario(ctx, key)
				if err != nil {
					return err
				}
				out := simulateOutput{
					Scenario:       key,
					Outcome:        res.Decision.Outcome,
					Expected:       res.Scenario.Expected,
					Matches:        res.MatchesExpected(),
					Reason:         res.Decision.Reason,
					ApprovedAmount: res.Decision.ApprovedAmount,
					PolicyVersion:  res.Decision.PolicyVersion,
				}
				if out.Matches {
					matched++
				}
				results = append(results, out)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
			} else {
				printResults(cmd.OutOrStdout(), results, matched)
			}
			if strict && matched != len(results) {
				return fmt.Errorf("%d of %d scenarios did not match their expected outcome", len(results)-matched, len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&policyPath, "policy", "p", "", "Policy file (embedded default when empty)")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when any scenario misses its expected outcome")
	return cmd
}

func printResults(w io.Writer, results []simulateOutput, matched int) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENARIO\tOUTCOME\tEXPECTED\tREASON")
	for _, r := range results {
		mark := ""
		if !r.Matches {
			mark = " !"
		}
		fmt.Fprintf(tw, "%s\t%s%s\t%s\t%s\n", r.Scenario, r.Outcome, mark, r.Expected, r.Reason)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "%d/%d scenarios matched\n", matched, len(results))
}

func tokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin bearer token signed with JWT_SIGNING_KEY",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			svc := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience)
			token, err := svc.GenerateAdminToken(subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "Operator identity recorded on admin actions")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
