// Command shadow_compare replays generation payloads against the legacy
// generator and this service and reports where their outcomes diverge.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// summary is the part of a generation result both implementations must agree on.
type summary struct {
	Status         string
	PlacedByCohort map[string]int
	MissingHours   int
	CriticalIssues int
}

type comparison struct {
	Payload        string
	Go             summary
	Legacy         summary
	DurationGo     time.Duration
	DurationLegacy time.Duration
	Diffs          []string
	Error          error
}

// breaking reports whether the outcome differs in a way clients would notice.
func (c comparison) breaking() bool {
	return c.Error != nil || c.Go.Status != c.Legacy.Status || c.Go.MissingHours > c.Legacy.MissingHours
}

type unallocated struct {
	Missing int `json:"missing"`
}

type generationResult struct {
	Status         string                                                    `json:"status"`
	ClassTimetable map[string]map[string]map[string]map[string][]interface{} `json:"class_timetable"`
	Unallocated    []unallocated                                             `json:"unallocated"`
	CriticalIssues []string                                                  `json:"critical_issues"`
}

func main() {
	var (
		goBase     string
		legacyBase string
		payloads   string
		path       string
		timeout    time.Duration
	)

	flag.StringVar(&goBase, "go-base", "http://localhost:8080", "Go API base URL")
	flag.StringVar(&legacyBase, "legacy-base", "http://localhost:5000", "Legacy generator base URL")
	flag.StringVar(&payloads, "payloads", filepath.Join("scripts", "shadow_compare", "payloads", "*.json"), "Glob of generation payload files")
	flag.StringVar(&path, "path", "/generate", "Generation endpoint path on both hosts")
	flag.DurationVar(&timeout, "timeout", 60*time.Second, "HTTP client timeout")
	flag.Parse()

	files, err := filepath.Glob(payloads)
	if err != nil {
		log.Fatalf("invalid payload glob: %v", err)
	}
	if len(files) == 0 {
		log.Fatalf("no payloads match %s", payloads)
	}
	sort.Strings(files)

	client := &http.Client{Timeout: timeout}
	var (
		comparisons []comparison
		breaking    int
		optional    int
	)
	for _, file := range files {
		comp := compareFile(client, goBase+path, legacyBase+path, file)
		switch {
		case comp.breaking():
			breaking++
		case len(comp.Diffs) > 0:
			optional++
		}
		comparisons = append(comparisons, comp)
	}

	printReport(os.Stdout, comparisons)
	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optional)
	if breaking > 0 {
		os.Exit(1)
	}
}

func compareFile(client *http.Client, goURL, legacyURL, file string) comparison {
	comp := comparison{Payload: filepath.Base(file)}
	body, err := os.ReadFile(file)
	if err != nil {
		comp.Error = fmt.Errorf("read payload: %w", err)
		return comp
	}

	goRaw, goDur, err := post(client, goURL, body)
	comp.DurationGo = goDur
	if err != nil {
		comp.Error = fmt.Errorf("go request failed: %w", err)
		return comp
	}
	legacyRaw, legacyDur, err := post(client, legacyURL, body)
	comp.DurationLegacy = legacyDur
	if err != nil {
		comp.Error = fmt.Errorf("legacy request failed: %w", err)
		return comp
	}

	if comp.Go, err = summarize(goRaw); err != nil {
		comp.Error = fmt.Errorf("decode go result: %w", err)
		return comp
	}
	if comp.Legacy, err = summarize(legacyRaw); err != nil {
		comp.Error = fmt.Errorf("decode legacy result: %w", err)
		return comp
	}
	comp.Diffs = diff(comp.Go, comp.Legacy)
	return comp
}

func post(client *http.Client, url string, body []byte) ([]byte, time.Duration, error) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	if err != nil {
		return nil, elapsed, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, elapsed, fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}
	return raw, elapsed, nil
}

func summarize(raw []byte) (summary, error) {
	var res generationResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return summary{}, err
	}
	s := summary{
		Status:         res.Status,
		PlacedByCohort: make(map[string]int),
		CriticalIssues: len(res.CriticalIssues),
	}
	for year, divisions := range res.ClassTimetable {
		for division, days := range divisions {
			for _, slots := range days {
				for _, entries := range slots {
					s.PlacedByCohort[year+"/"+division] += len(entries)
				}
			}
		}
	}
	for _, u := range res.Unallocated {
		s.MissingHours += u.Missing
	}
	return s, nil
}

func diff(goSum, legacySum summary) []string {
	var out []string
	if goSum.Status != legacySum.Status {
		out = append(out, fmt.Sprintf("status %s vs %s", goSum.Status, legacySum.Status))
	}
	if goSum.MissingHours != legacySum.MissingHours {
		out = append(out, fmt.Sprintf("missing hours %d vs %d", goSum.MissingHours, legacySum.MissingHours))
	}
	if goSum.CriticalIssues != legacySum.CriticalIssues {
		out = append(out, fmt.Sprintf("critical issues %d vs %d", goSum.CriticalIssues, legacySum.CriticalIssues))
	}
	cohorts := make(map[string]struct{})
	for k := range goSum.PlacedByCohort {
		cohorts[k] = struct{}{}
	}
	for k := range legacySum.PlacedByCohort {
		cohorts[k] = struct{}{}
	}
	keys := make([]string, 0, len(cohorts))
	for k := range cohorts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if a, b := goSum.PlacedByCohort[k], legacySum.PlacedByCohort[k]; a != b {
			out = append(out, fmt.Sprintf("%s placed %d vs %d", k, a, b))
		}
	}
	return out
}

func printReport(w io.Writer, results []comparison) {
	fmt.Fprintln(w, "Generation Shadow Compare Report")
	fmt.Fprintln(w, "================================")
	for _, res := range results {
		status := "OK"
		switch {
		case res.Error != nil:
			status = "ERROR"
		case res.breaking():
			status = "BREAKING"
		case len(res.Diffs) > 0:
			status = "DIFF"
		}
		fmt.Fprintf(w, "[%s] %s\n", status, res.Payload)
		if res.Error != nil {
			fmt.Fprintf(w, "  Error: %v\n", res.Error)
			continue
		}
		fmt.Fprintf(w, "  Go: %s, %d missing (%s)\n", res.Go.Status, res.Go.MissingHours, res.DurationGo)
		fmt.Fprintf(w, "  Legacy: %s, %d missing (%s)\n", res.Legacy.Status, res.Legacy.MissingHours, res.DurationLegacy)
		for _, d := range res.Diffs {
			fmt.Fprintf(w, "  - %s\n", d)
		}
	}
}
