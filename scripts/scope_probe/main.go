package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type account struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type probe struct {
	Account  string `json:"account"`
	Method   string `json:"method"`
	Path     string `json:"path"`
	Body     any    `json:"body,omitempty"`
	Expect   int    `json:"expect"`
	Critical bool   `json:"critical"`
}

type config struct {
	Accounts map[string]account `json:"accounts"`
	Probes   []probe            `json:"probes"`
}

type result struct {
	Probe    probe
	Status   int
	Error    error
	Duration time.Duration
}

func (r result) passed() bool {
	return r.Error == nil && r.Status == r.Probe.Expect
}

func main() {
	var (
		base       string
		prefix     string
		probesPath string
		timeout    time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&prefix, "prefix", "/api/v1", "API route prefix")
	flag.StringVar(&probesPath, "probes", filepath.Join("scripts", "scope_probe", "probes.json"), "Path to JSON probes file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	cfg, err := loadConfig(probesPath)
	if err != nil {
		log.Fatalf("failed to load probes: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	apiBase := strings.TrimRight(base, "/") + prefix

	tokens := make(map[string]string, len(cfg.Accounts))
	for name, acc := range cfg.Accounts {
		token, err := login(client, apiBase, acc)
		if err != nil {
			log.Fatalf("login %s failed: %v", name, err)
		}
		tokens[name] = token
	}

	var (
		results  []result
		breaking int
		optional int
	)
	for _, p := range cfg.Probes {
		res := run(client, apiBase, tokens[p.Account], p)
		if !res.passed() {
			if p.Critical {
				breaking++
			} else {
				optional++
			}
		}
		results = append(results, res)
	}

	printReport(results)

	fmt.Printf("Breaking mismatches: %d, Optional mismatches: %d\n", breaking, optional)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadConfig(path string) (*config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Probes) == 0 {
		return nil, fmt.Errorf("no probes defined in %s", path)
	}
	for _, p := range cfg.Probes {
		if p.Account == "" {
			continue
		}
		if _, ok := cfg.Accounts[p.Account]; !ok {
			return nil, fmt.Errorf("probe %s %s references unknown account %q", p.Method, p.Path, p.Account)
		}
	}
	return &cfg, nil
}

func login(client *http.Client, apiBase string, acc account) (string, error) {
	resp, _, err := do(client, http.MethodPost, apiBase+"/auth/login", "", acc)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var envelope struct {
		Data struct {
			AccessToken string `json:"accessToken"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if envelope.Data.AccessToken == "" {
		return "", errors.New("login response carried no token")
	}
	return envelope.Data.AccessToken, nil
}

func run(client *http.Client, apiBase, token string, p probe) result {
	res := result{Probe: p}
	method := strings.ToUpper(strings.TrimSpace(p.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := p.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	resp, dur, err := do(client, method, apiBase+path, token, p.Body)
	res.Duration = dur
	if err != nil {
		res.Error = err
		return res
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	res.Status = resp.StatusCode
	return res
}

func do(client *http.Client, method, url, token string, body any) (*http.Response, time.Duration, error) {
	if client == nil {
		return nil, 0, errors.New("nil client")
	}
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, 0, err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return nil, 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	return resp, time.Since(start), nil
}

func printReport(results []result) {
	fmt.Println("Scope Probe Report")
	fmt.Println("==================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.passed() {
			status = "MISMATCH"
		}
		who := res.Probe.Account
		if who == "" {
			who = "anonymous"
		}
		fmt.Printf("[%s] %s %s as %s\n", status, res.Probe.Method, res.Probe.Path, who)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
			continue
		}
		fmt.Printf("  Status: %d, expected %d (%s) | Critical: %t\n", res.Status, res.Probe.Expect, res.Duration, res.Probe.Critical)
	}
}
