package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"gridarena/room"
)

func newStatsCmd() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print room statistics of a running coordinator",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			st, err := fetchStats(ctx, addr)
			if err != nil {
				return err
			}
			renderStats(cmd.OutOrStdout(), addr, st)
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "server", "http://localhost:3001", "coordinator base URL")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "request timeout")
	return cmd
}

// fetchStats 请求 /api/rooms
func fetchStats(ctx context.Context, base string) (room.Stats, error) {
	url := strings.TrimRight(base, "/") + "/api/rooms"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return room.Stats{}, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return room.Stats{}, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return room.Stats{}, fmt.Errorf("get %s: unexpected status %s", url, resp.Status)
	}
	var st room.Stats
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return room.Stats{}, fmt.Errorf("decode stats: %w", err)
	}
	return st, nil
}

func renderStats(out io.Writer, addr string, st room.Stats) {
	fmt.Fprintln(out, color.Cyan.Sprintf("gridarena @ %s", addr))
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"total rooms", strconv.Itoa(st.TotalRooms)})
	table.Append([]string{"playing", strconv.Itoa(st.ActiveRooms)})
	table.Append([]string{"waiting", strconv.Itoa(st.WaitingRooms)})
	table.Append([]string{"players", strconv.Itoa(st.TotalPlayers)})
	table.Render()
}
