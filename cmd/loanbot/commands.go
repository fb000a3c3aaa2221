package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/loanbot/internal/catalog"
	"github.com/kalambet/loanbot/internal/chat"
	"github.com/kalambet/loanbot/internal/config"
	"github.com/kalambet/loanbot/internal/eligibility"
	"github.com/kalambet/loanbot/internal/emi"
	"github.com/kalambet/loanbot/internal/profile"
)

// --- loans ---

var loansCmd = &cobra.Command{
	Use:   "loans [type]",
	Short: "List loan products, or show one by type",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		if len(args) == 1 {
			var p catalog.LoanPolicy
			if err := fetchLoan(cmd.Context(), client, args[0], &p); err != nil {
				return err
			}
			printPolicy(p)
			return nil
		}

		resp, err := client.get(cmd.Context(), "/api/v1/loans")
		if err != nil {
			return err
		}
		var loans []catalog.LoanPolicy
		if err := decodeJSON(resp, &loans); err != nil {
			return err
		}
		if len(loans) == 0 {
			printWarning("No loan products configured")
			return nil
		}
		for _, p := range loans {
			printPolicy(p)
		}
		return nil
	},
}

func fetchLoan(ctx context.Context, client *apiClient, loanType string, dst *catalog.LoanPolicy) error {
	resp, err := client.get(ctx, "/api/v1/loans/"+url.PathEscape(loanType))
	if err != nil {
		return err
	}
	return decodeJSON(resp, dst)
}

func printPolicy(p catalog.LoanPolicy) {
	fmt.Println(colorize(colorBold, p.Type))
	if p.Description != "" {
		fmt.Printf("  %s\n", p.Description)
	}
	fmt.Printf("  rate %v%% p.a., up to %d years, max %s\n", p.InterestRate, p.TenureYears, chat.FormatRupees(p.MaxAmount))
	fmt.Printf("  age %d-%d, income >= %s/month, CIBIL >= %d\n", p.MinAge, p.MaxAge, chat.FormatRupees(p.MinIncome), p.MinCIBIL)
}

// --- eligibility ---

var eligibilityCmd = &cobra.Command{
	Use:   "eligibility",
	Short: "Check loan eligibility",
	Long: `Check whether an applicant qualifies for a loan type.

Examples:
  loanbot eligibility --type Home --age 32 --income 85000 --cibil 760
  loanbot eligibility --type Personal --age 25 --income 40000 --cibil 710 --employment self-employed`,
	RunE: func(cmd *cobra.Command, args []string) error {
		loanType, _ := cmd.Flags().GetString("type")
		age, _ := cmd.Flags().GetInt("age")
		income, _ := cmd.Flags().GetFloat64("income")
		cibil, _ := cmd.Flags().GetInt("cibil")
		employment, _ := cmd.Flags().GetString("employment")

		if loanType == "" {
			return fmt.Errorf("--type is required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/api/v1/eligibility", eligibility.Request{
			Age:              age,
			Income:           income,
			CIBILScore:       cibil,
			EmploymentStatus: employment,
			LoanType:         loanType,
		})
		if err != nil {
			return err
		}

		var v eligibility.Verdict
		if err := decodeJSON(resp, &v); err != nil {
			return err
		}
		printVerdict(v)
		return nil
	},
}

func printVerdict(v eligibility.Verdict) {
	if !v.Eligible {
		printError("%s", v.Message)
		return
	}
	printSuccess("%s", v.Message)
	if v.MaxAmount != nil {
		printStatus("Max amount", "%s", chat.FormatRupees(*v.MaxAmount))
	}
}

func init() {
	eligibilityCmd.Flags().String("type", "", "loan type, e.g. Home")
	eligibilityCmd.Flags().Int("age", 0, "applicant age in years")
	eligibilityCmd.Flags().Float64("income", 0, "monthly income in rupees")
	eligibilityCmd.Flags().Int("cibil", 0, "CIBIL score (300-900)")
	eligibilityCmd.Flags().String("employment", "salaried", "employment status")
}

// --- emi ---

var emiCmd = &cobra.Command{
	Use:   "emi",
	Short: "Calculate the monthly installment for a loan",
	Long: `Calculate EMI, total payable and total interest locally.

Examples:
  loanbot emi --principal 1000000 --rate 8.5 --years 20`,
	RunE: func(cmd *cobra.Command, args []string) error {
		principal, _ := cmd.Flags().GetFloat64("principal")
		rate, _ := cmd.Flags().GetFloat64("rate")
		years, _ := cmd.Flags().GetInt("years")

		if err := validateEMIArgs(principal, rate, years); err != nil {
			return err
		}

		r := emi.Compute(principal, rate, years)
		printStatus("EMI", "%.2f", r.EMI)
		printStatus("Total payable", "%.2f", r.TotalPayable)
		printStatus("Total interest", "%.2f", r.TotalInterest)
		return nil
	},
}

func validateEMIArgs(principal, rate float64, years int) error {
	switch {
	case principal <= 0:
		return fmt.Errorf("--principal must be greater than 0")
	case rate <= 0:
		return fmt.Errorf("--rate must be greater than 0")
	case years <= 0:
		return fmt.Errorf("--years must be greater than 0")
	}
	return nil
}

func init() {
	emiCmd.Flags().Float64("principal", 0, "loan amount in rupees")
	emiCmd.Flags().Float64("rate", 0, "annual interest rate in percent")
	emiCmd.Flags().Int("years", 0, "tenure in years")
}

// --- chat ---

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the loan assistant",
}

type chatReply struct {
	Reply     string `json:"reply"`
	SessionID string `json:"session_id"`
}

type chatHistory struct {
	SessionID string      `json:"session_id"`
	History   []chat.Turn `json:"history"`
}

var chatSendCmd = &cobra.Command{
	Use:   "send <message>",
	Short: "Send a message; pass --session to continue a conversation",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, _ := cmd.Flags().GetString("session")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/api/v1/chat", map[string]string{
			"message":    strings.Join(args, " "),
			"session_id": session,
		})
		if err != nil {
			return err
		}

		var r chatReply
		if err := decodeJSON(resp, &r); err != nil {
			return err
		}
		fmt.Println(r.Reply)
		printStatus("Session", "%s", r.SessionID)
		return nil
	},
}

var chatHistoryCmd = &cobra.Command{
	Use:   "history <session-id>",
	Short: "Show a session's recent turns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/api/v1/chat/"+url.PathEscape(args[0]))
		if err != nil {
			return err
		}

		var h chatHistory
		if err := decodeJSON(resp, &h); err != nil {
			return err
		}
		if len(h.History) == 0 {
			printWarning("No history for session %s", h.SessionID)
			return nil
		}
		for _, t := range h.History {
			label := colorize(colorCyan, t.Role)
			if t.Role == chat.RoleUser {
				label = colorize(colorBold, t.Role)
			}
			fmt.Printf("%s: %s\n", label, t.Content)
		}
		return nil
	},
}

var chatClearCmd = &cobra.Command{
	Use:   "clear <session-id>",
	Short: "Forget a session's history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/api/v1/chat/"+url.PathEscape(args[0]))
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("Cleared session %s", args[0])
		return nil
	},
}

func init() {
	chatSendCmd.Flags().String("session", "", "session id to continue")
	chatCmd.AddCommand(chatSendCmd)
	chatCmd.AddCommand(chatHistoryCmd)
	chatCmd.AddCommand(chatClearCmd)
}

// --- dna ---

var dnaCmd = &cobra.Command{
	Use:   "dna",
	Short: "Generate a Loan DNA profile",
	Long: `Generate a Loan DNA profile from a monthly financial snapshot.

Examples:
  loanbot dna --income 90000 --expenses 40000 --existing-emi 5000 --cibil 780 --savings 300000 --goal "buy a home"
  loanbot dna --income 60000 --expenses 30000 --cibil 700 --savings 50000 --goal "start a business" --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		income, _ := flags.GetFloat64("income")
		expenses, _ := flags.GetFloat64("expenses")
		existing, _ := flags.GetFloat64("existing-emi")
		cibil, _ := flags.GetInt("cibil")
		savings, _ := flags.GetFloat64("savings")
		employment, _ := flags.GetString("employment")
		goal, _ := flags.GetString("goal")
		asJSON, _ := flags.GetBool("json")

		if goal == "" {
			return fmt.Errorf("--goal is required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/api/v1/dna", profile.Input{
			Income:           income,
			Expenses:         expenses,
			ExistingEMI:      existing,
			CIBILScore:       cibil,
			Savings:          savings,
			EmploymentStatus: employment,
			Goal:             goal,
		})
		if err != nil {
			return err
		}

		var r profile.Report
		if err := decodeJSON(resp, &r); err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(r)
		}
		printReport(r)
		return nil
	},
}

var nodeGlyphs = map[string]string{
	profile.Adenine:  "A",
	profile.Thymine:  "T",
	profile.Cytosine: "C",
	profile.Guanine:  "G",
}

func printReport(r profile.Report) {
	printStatus("Spend", "%d", r.Scores.Spend)
	printStatus("Save", "%d", r.Scores.Save)
	printStatus("Credit", "%d", r.Scores.Credit)
	printStatus("Stability", "%d", r.Scores.Stability)
	printStatus("Growth", "%d", r.Scores.Growth)

	var seq strings.Builder
	for _, n := range r.DNASequence {
		seq.WriteString(nodeGlyphs[n.Type])
	}
	printStatus("Sequence", "%s", seq.String())

	for _, in := range r.Insights {
		fmt.Printf("%s [%s]\n  %s\n", colorize(colorBold, in.Title), in.Impact, in.Description)
	}
	fmt.Println(r.Strategy)
}

func init() {
	dnaCmd.Flags().Float64("income", 0, "monthly income in rupees")
	dnaCmd.Flags().Float64("expenses", 0, "monthly expenses in rupees")
	dnaCmd.Flags().Float64("existing-emi", 0, "existing monthly EMI in rupees")
	dnaCmd.Flags().Int("cibil", 0, "CIBIL score (300-900)")
	dnaCmd.Flags().Float64("savings", 0, "total savings in rupees")
	dnaCmd.Flags().String("employment", "salaried", "employment status")
	dnaCmd.Flags().String("goal", "", "primary financial goal")
	dnaCmd.Flags().Bool("json", false, "print the raw report as JSON")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: "Set a configuration value in the config file.\n\nValid keys:\n  " +
		strings.Join(config.ValidKeys(), "\n  "),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
