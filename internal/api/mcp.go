package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/loanbot/internal/catalog"
	"github.com/kalambet/loanbot/internal/eligibility"
	"github.com/kalambet/loanbot/internal/emi"
	"github.com/kalambet/loanbot/internal/profile"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Catalog   *catalog.Catalog
	Evaluator *eligibility.Evaluator
	Chat      ChatService
	DNA       DNAService // optional; if nil, loan_dna returns an error
	Version   string
}

// NewMCPServer creates an MCP server with all loanbot tools and resources registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	s := server.NewMCPServer(
		"loanbot",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("loanbot: loan catalog, eligibility checks, EMI calculation, a loan advisor chat and Loan DNA profiles."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("list_loans",
			mcp.WithDescription("List every loan product with its rate, tenure, amount cap and eligibility limits."),
		),
		mcpListLoans(deps),
	)

	s.AddTool(
		mcp.NewTool("check_eligibility",
			mcp.WithDescription("Check whether an applicant qualifies for a loan type and the maximum amount offered."),
			mcp.WithString("loan_type", mcp.Description("Loan type, e.g. Home"), mcp.Required()),
			mcp.WithNumber("age", mcp.Description("Applicant age in years"), mcp.Required()),
			mcp.WithNumber("income", mcp.Description("Monthly income in rupees"), mcp.Required()),
			mcp.WithNumber("cibil_score", mcp.Description("CIBIL score (300-900)"), mcp.Required()),
			mcp.WithString("employment_status", mcp.Description("e.g. salaried, self-employed"), mcp.Required()),
		),
		mcpCheckEligibility(deps),
	)

	s.AddTool(
		mcp.NewTool("calculate_emi",
			mcp.WithDescription("Compute the monthly installment, total payable and total interest for a loan."),
			mcp.WithNumber("principal", mcp.Description("Loan amount in rupees"), mcp.Required()),
			mcp.WithNumber("annual_rate", mcp.Description("Annual interest rate in percent"), mcp.Required()),
			mcp.WithNumber("tenure_years", mcp.Description("Tenure in whole years"), mcp.Required()),
		),
		mcpCalculateEMI,
	)

	s.AddTool(
		mcp.NewTool("chat",
			mcp.WithDescription("Send a message to the loan advisor. Pass the returned session_id to continue a conversation."),
			mcp.WithString("message", mcp.Description("User message"), mcp.Required()),
			mcp.WithString("session_id", mcp.Description("Existing session id (optional)")),
		),
		mcpChat(deps),
	)

	s.AddTool(
		mcp.NewTool("loan_dna",
			mcp.WithDescription("Generate a Loan DNA profile: five scores, a ten-node sequence, three insights and a strategy."),
			mcp.WithNumber("income", mcp.Description("Monthly income in rupees"), mcp.Required()),
			mcp.WithNumber("expenses", mcp.Description("Monthly expenses in rupees"), mcp.Required()),
			mcp.WithNumber("existing_emi", mcp.Description("Existing monthly EMI in rupees"), mcp.Required()),
			mcp.WithNumber("cibil_score", mcp.Description("CIBIL score (300-900)"), mcp.Required()),
			mcp.WithNumber("savings", mcp.Description("Total savings in rupees"), mcp.Required()),
			mcp.WithString("employment_status", mcp.Description("e.g. salaried, self-employed"), mcp.Required()),
			mcp.WithString("goal", mcp.Description("Primary financial goal"), mcp.Required()),
		),
		mcpLoanDNA(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"loans://catalog",
			"Loan Catalog",
			mcp.WithResourceDescription("All loan products as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceCatalog(deps),
	)

	return s
}

func mcpListLoans(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcpJSON(deps.Catalog.All()), nil
	}
}

func mcpCheckEligibility(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		loanType, err := req.RequireString("loan_type")
		if err != nil {
			return mcpError("loan_type is required"), nil
		}
		age, err := req.RequireInt("age")
		if err != nil {
			return mcpError("age is required"), nil
		}
		income, err := req.RequireFloat("income")
		if err != nil {
			return mcpError("income is required"), nil
		}
		cibil, err := req.RequireInt("cibil_score")
		if err != nil {
			return mcpError("cibil_score is required"), nil
		}
		employment, err := req.RequireString("employment_status")
		if err != nil {
			return mcpError("employment_status is required"), nil
		}

		in := eligibilityRequest{Age: &age, Income: &income, CIBILScore: &cibil, EmploymentStatus: employment, LoanType: loanType}
		if err := validate.Struct(in); err != nil {
			return mcpError(validationMessage(err)), nil
		}

		return mcpJSON(deps.Evaluator.Evaluate(eligibility.Request{
			Age:              age,
			Income:           income,
			CIBILScore:       cibil,
			EmploymentStatus: employment,
			LoanType:         loanType,
		})), nil
	}
}

func mcpCalculateEMI(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	principal, err := req.RequireFloat("principal")
	if err != nil {
		return mcpError("principal is required"), nil
	}
	rate, err := req.RequireFloat("annual_rate")
	if err != nil {
		return mcpError("annual_rate is required"), nil
	}
	years, err := req.RequireInt("tenure_years")
	if err != nil {
		return mcpError("tenure_years is required"), nil
	}

	in := emiRequest{Principal: &principal, AnnualRate: &rate, TenureYears: &years}
	if err := validate.Struct(in); err != nil {
		return mcpError(validationMessage(err)), nil
	}
	return mcpJSON(emi.Compute(principal, rate, years)), nil
}

func mcpChat(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}
		sessionID := req.GetString("session_id", "")

		reply, id, err := deps.Chat.Respond(ctx, sessionID, message)
		if err != nil {
			return mcpError(fmt.Sprintf("chat failed: %v", err)), nil
		}
		return mcpJSON(chatResponse{Reply: reply, SessionID: id}), nil
	}
}

func mcpLoanDNA(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if deps.DNA == nil {
			return mcpError("Loan DNA is disabled on this server"), nil
		}

		var in dnaRequest
		for key, dst := range map[string]**float64{
			"income":       &in.Income,
			"expenses":     &in.Expenses,
			"existing_emi": &in.ExistingEMI,
			"savings":      &in.Savings,
		} {
			v, err := req.RequireFloat(key)
			if err != nil {
				return mcpError(key + " is required"), nil
			}
			*dst = &v
		}
		cibil, err := req.RequireInt("cibil_score")
		if err != nil {
			return mcpError("cibil_score is required"), nil
		}
		in.CIBILScore = &cibil
		in.EmploymentStatus = req.GetString("employment_status", "")
		in.Goal = req.GetString("goal", "")

		if err := validate.Struct(in); err != nil {
			return mcpError(validationMessage(err)), nil
		}

		return mcpJSON(deps.DNA.Synthesize(ctx, profile.Input{
			Income:           *in.Income,
			Expenses:         *in.Expenses,
			ExistingEMI:      *in.ExistingEMI,
			CIBILScore:       cibil,
			Savings:          *in.Savings,
			EmploymentStatus: in.EmploymentStatus,
			Goal:             in.Goal,
		})), nil
	}
}

func mcpResourceCatalog(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(deps.Catalog.All())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal catalog: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpJSON(v any) *mcp.CallToolResult {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err))
	}
	return mcpText(string(b))
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
