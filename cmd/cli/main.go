package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fincore-cli",
		Short: "Financial core CLI tool",
		Long:  `A command line interface for operating the financial core API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the financial core API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	// Ledger commands
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		Run: func(cmd *cobra.Command, args []string) {
			checkConsistency()
		},
	}

	balanceCmd := &cobra.Command{
		Use:   "balance [account-number]",
		Short: "Show the balance of a ledger account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			showBalance(args[0])
		},
	}

	ledgerCmd.AddCommand(consistencyCmd, balanceCmd)
	rootCmd.AddCommand(ledgerCmd)

	// Scheduled jobs. Each subcommand triggers one background job and
	// prints how many items it processed; a cron wrapper runs these.
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Run scheduled maintenance jobs",
	}

	jobs := []struct {
		use   string
		short string
	}{
		{"cancel-expired", "Cancel unpaid invoices past their auto-cancel time"},
		{"send-reminders", "Send payment reminders for overdue invoices"},
		{"process-refunds", "Issue queued automatic refunds"},
		{"flag-stalled", "Alert about refunds stuck in issued state"},
		{"pending-reminders", "Alert about unmatched bank transactions"},
	}
	for _, j := range jobs {
		job := j
		jobsCmd.AddCommand(&cobra.Command{
			Use:   job.use,
			Short: job.short,
			Run: func(cmd *cobra.Command, args []string) {
				runJob(job.use)
			},
		})
	}
	rootCmd.AddCommand(jobsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// jobPath maps a jobs subcommand name onto its API endpoint.
func jobPath(name string) string {
	return "/api/v1/jobs/" + strings.TrimPrefix(name, "/")
}

func runJob(name string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(baseURL+jobPath(name), "application/json", nil)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Job %s FAILED (Status: %d)\nResponse: %s\n", name, resp.StatusCode, string(body))
		os.Exit(1)
	}

	var result struct {
		Processed int `json:"processed"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Job %s done, processed %d\n", name, result.Processed)
}

func checkConsistency() {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + "/api/v1/ledger/consistency")
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Consistency check FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Consistency check PASSED\n")
	fmt.Printf("Status: %s\n", result["status"])
}

func showBalance(account string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + "/api/v1/ledger/accounts/" + account + "/balance")
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Balance lookup FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var result struct {
		AccountNumber int    `json:"account_number"`
		Balance       string `json:"balance"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Account %d balance: %s\n", result.AccountNumber, result.Balance)
}
