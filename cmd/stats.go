package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints resume download statistics from a running server.",
	RunE: func(cmd *cobra.Command, args []string) error {
		server, _ := cmd.Flags().GetString("server")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		total, recent, err := fetchDownloadStats(cmd.Context(), server, timeout)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Total downloads:      %d\n", total)
		fmt.Fprintf(cmd.OutOrStdout(), "Downloads this month: %d\n", recent)
		return nil
	},
}

func init() {
	statsCmd.Flags().String("server", "http://127.0.0.1:8080", "Base URL of the portfolio server")
	statsCmd.Flags().Duration("timeout", 10*time.Second, "Request timeout")
	rootCmd.AddCommand(statsCmd)
}

func fetchDownloadStats(ctx context.Context, server string, timeout time.Duration) (total, recent int64, err error) {
	client := retryablehttp.NewClient()
	client.Logger = nil
	client.RetryMax = 2
	client.HTTPClient.Timeout = timeout

	if ctx == nil {
		ctx = context.Background()
	}
	url := strings.TrimRight(server, "/") + "/api/resume/stats"
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("%s: %s: %s", url, resp.Status, gjson.GetBytes(body, "detail").String())
	}
	if !gjson.ValidBytes(body) {
		return 0, 0, fmt.Errorf("%s: response is not JSON", url)
	}
	res := gjson.ParseBytes(body)
	return res.Get("total_downloads").Int(), res.Get("recent_downloads").Int(), nil
}
