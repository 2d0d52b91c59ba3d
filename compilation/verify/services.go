package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/trailofbits/ccompile/compilation/errs"
)

// etherscanBaseURL is the v2 multichain API endpoint; the chain is selected via the "chainid" query parameter
// rather than a per-chain subdomain.
const etherscanBaseURL = "https://api.etherscan.io/v2/api"

// etherscanFetcher retrieves verified source from an Etherscan-style block explorer API.
type etherscanFetcher struct {
	client *http.Client
}

type etherscanSourceResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  []struct {
		SourceCode      string `json:"SourceCode"`
		ContractName    string `json:"ContractName"`
		CompilerVersion string `json:"CompilerVersion"`
		OptimizationUsed string `json:"OptimizationUsed"`
		Runs            string `json:"Runs"`
		EVMVersion      string `json:"EVMVersion"`
	} `json:"result"`
}

// etherscanMultiFileSource mirrors the "{sources: {path: {content: ...}}}" shape Etherscan embeds in
// SourceCode when a contract was verified from more than one file (standard-JSON input, sometimes with extra
// enclosing braces).
type etherscanMultiFileSource struct {
	Sources map[string]struct {
		Content string `json:"content"`
	} `json:"sources"`
	Settings struct {
		EVMVersion string   `json:"evmVersion"`
		Remappings []string `json:"remappings"`
		Optimizer  struct {
			Enabled bool `json:"enabled"`
			Runs    int  `json:"runs"`
		} `json:"optimizer"`
	} `json:"settings"`
}

func (e *etherscanFetcher) FetchVerifiedSource(ctx context.Context, target Target, apiKey string) (*VerifiedSource, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ETHERSCAN_API_KEY")
	}

	chainID := target.Chain
	if chainID == "" || chainID == "mainnet" {
		chainID = "1"
	}

	query := url.Values{}
	query.Set("chainid", chainID)
	query.Set("module", "contract")
	query.Set("action", "getsourcecode")
	query.Set("address", target.Address)
	if apiKey != "" {
		query.Set("apikey", apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, etherscanBaseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyHTTPError("etherscan", resp)
	}

	var decoded etherscanSourceResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: could not decode etherscan response: %w", errs.ErrNetwork, err)
	}

	if len(decoded.Result) == 0 || decoded.Result[0].SourceCode == "" {
		return nil, fmt.Errorf("%w: etherscan reports no verified source for this address", errs.ErrSourceNotVerified)
	}

	entry := decoded.Result[0]
	source := &VerifiedSource{
		ContractName:    entry.ContractName,
		CompilerVersion: entry.CompilerVersion,
		Files:           make(map[string]string),
	}

	raw := entry.SourceCode
	var multi etherscanMultiFileSource
	if len(raw) > 1 && raw[0] == '{' && raw[1] == '{' {
		raw = raw[1 : len(raw)-1] // Etherscan double-wraps standard-JSON-input sources in an extra brace pair
	}
	if json.Unmarshal([]byte(raw), &multi) == nil && len(multi.Sources) > 0 {
		for path, file := range multi.Sources {
			source.Files[path] = file.Content
		}
		source.Settings = &CompilerSettings{
			EVMVersion: multi.Settings.EVMVersion,
			Remappings: multi.Settings.Remappings,
			Optimizer:  multi.Settings.Optimizer.Enabled,
			Runs:       multi.Settings.Optimizer.Runs,
		}
	} else {
		name := entry.ContractName
		if name == "" {
			name = "Contract"
		}
		source.Files[name+".sol"] = entry.SourceCode
		runs := 0
		fmt.Sscanf(entry.Runs, "%d", &runs)
		source.Settings = &CompilerSettings{
			EVMVersion: entry.EVMVersion,
			Optimizer:  entry.OptimizationUsed == "1",
			Runs:       runs,
		}
	}

	return source, nil
}

// sourcifyBaseURL is Sourcify's repository API, which serves verified sources as a plain file tree rather than a
// JSON envelope.
const sourcifyBaseURL = "https://repo.sourcify.dev/contracts/full_match"

// sourcifyFetcher retrieves verified source from Sourcify's repository API.
type sourcifyFetcher struct {
	client *http.Client
}

func (s *sourcifyFetcher) FetchVerifiedSource(ctx context.Context, target Target, _ string) (*VerifiedSource, error) {
	chainID := target.Chain
	if chainID == "" || chainID == "mainnet" {
		chainID = "1"
	}

	metadataURL := fmt.Sprintf("%s/%s/%s/metadata.json", sourcifyBaseURL, chainID, target.Address)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metadataURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyHTTPError("sourcify", resp)
	}

	var metadata struct {
		Compiler struct {
			Version string `json:"version"`
		} `json:"compiler"`
		Settings struct {
			EVMVersion string   `json:"evmVersion"`
			Remappings []string `json:"remappings"`
			Optimizer  struct {
				Enabled bool `json:"enabled"`
				Runs    int  `json:"runs"`
			} `json:"optimizer"`
			CompilationTarget map[string]string `json:"compilationTarget"`
		} `json:"settings"`
		Sources map[string]struct {
			Content string `json:"content"`
		} `json:"sources"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&metadata); err != nil {
		return nil, fmt.Errorf("%w: could not decode sourcify metadata: %w", errs.ErrNetwork, err)
	}

	name := ""
	for _, contractName := range metadata.Settings.CompilationTarget {
		name = contractName
	}

	source := &VerifiedSource{
		ContractName:    name,
		CompilerVersion: metadata.Compiler.Version,
		Files:           make(map[string]string),
		Settings: &CompilerSettings{
			EVMVersion: metadata.Settings.EVMVersion,
			Remappings: metadata.Settings.Remappings,
			Optimizer:  metadata.Settings.Optimizer.Enabled,
			Runs:       metadata.Settings.Optimizer.Runs,
		},
	}
	for path, file := range metadata.Sources {
		source.Files[path] = file.Content
	}

	return source, nil
}
