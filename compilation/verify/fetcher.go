// Package verify implements the verification-fetcher adapters: given an on-chain contract address (optionally
// chain-prefixed), it retrieves verified source from an Etherscan-style or Sourcify-style API, materializes it to
// disk, and hands the materialized directory back to the platform registry for a normal compile pass.
package verify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/trailofbits/ccompile/compilation/errs"
	"github.com/trailofbits/ccompile/logging"
	"github.com/trailofbits/ccompile/utils"
)

var fetcherLogger = logging.GlobalLogger.NewSubLogger("module", "verify")

// Target describes a parsed verification-fetcher target string: an optional chain prefix ("mainnet:",
// "sourcify-1:", "sourcify-0x...:") followed by a 0x-address.
type Target struct {
	// Service is "etherscan" or "sourcify", inferred from the prefix (defaults to "etherscan" if unprefixed).
	Service string

	// Chain is the chain identifier carried by the prefix, e.g. "mainnet" or "1". Empty if unprefixed.
	Chain string

	// Address is the lowercased 0x-prefixed contract address.
	Address string
}

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// IsAddressTarget reports whether target looks like a fetcher target: an address, optionally chain-prefixed.
func IsAddressTarget(target string) bool {
	_, err := ParseTarget(target)
	return err == nil
}

// ParseTarget splits target into its chain-prefix and address components.
func ParseTarget(target string) (Target, error) {
	service := "etherscan"
	chain := ""
	rest := target

	if idx := strings.LastIndex(target, ":"); idx >= 0 {
		prefix := target[:idx]
		rest = target[idx+1:]
		switch {
		case prefix == "mainnet":
			chain = "mainnet"
		case strings.HasPrefix(prefix, "sourcify-"):
			service = "sourcify"
			chain = strings.TrimPrefix(prefix, "sourcify-")
		default:
			chain = prefix
		}
	}

	if !addressPattern.MatchString(rest) {
		return Target{}, fmt.Errorf("%w: '%s' is not a valid chain-prefixed contract address", errs.ErrInvalidTarget, target)
	}

	address, err := utils.HexStringToAddress(rest)
	if err != nil {
		return Target{}, fmt.Errorf("%w: '%s' is not a valid chain-prefixed contract address: %w", errs.ErrInvalidTarget, target, err)
	}

	return Target{Service: service, Chain: chain, Address: strings.ToLower(address.Hex())}, nil
}

// FetchState names a step of the fetcher's per-address state machine.
type FetchState string

const (
	StateStart         FetchState = "start"
	StateResolving     FetchState = "resolving"
	StateMaterializing FetchState = "materializing"
	StateRedispatching FetchState = "redispatching"
	StateDone          FetchState = "done"
)

// VerifiedSource is the normalized shape a service response is reduced to, regardless of whether the service
// returned a single flattened file, a standard-JSON input, or a multi-file source list.
type VerifiedSource struct {
	ContractName string
	CompilerVersion string
	Files        map[string]string // relative path -> content
	Settings     *CompilerSettings
}

// CompilerSettings mirrors the subset of solc settings a verification service reports that are needed to
// reproduce its original compilation.
type CompilerSettings struct {
	Optimizer    bool     `json:"optimizer,omitempty"`
	Runs         int      `json:"optimizerRuns,omitempty"`
	ViaIR        bool     `json:"viaIR,omitempty"`
	EVMVersion   string   `json:"evmVersion,omitempty"`
	Remappings   []string `json:"remappings,omitempty"`
}

// SourceFetcher retrieves verified source for a Target from its remote service. Implemented separately per
// service (Etherscan-style, Sourcify-style) since their response shapes differ; the state machine and retry
// policy in Fetcher are shared.
type SourceFetcher interface {
	FetchVerifiedSource(ctx context.Context, target Target, apiKey string) (*VerifiedSource, error)
}

// Fetcher drives the shared verification-fetcher protocol: resolve, materialize, and report back the directory a
// second compile pass should target.
type Fetcher struct {
	// HTTPClient issues the fetcher's requests. Defaults to http.DefaultClient if nil.
	HTTPClient *http.Client

	// ExportDir is the root "crytic-export" directory sources are materialized under.
	ExportDir string

	// APIKey authenticates requests where the service supports it. Unauthenticated requests proceed with a
	// longer backoff per spec.
	APIKey string

	fetchers map[string]SourceFetcher
}

// NewFetcher returns a Fetcher wired to the default Etherscan and Sourcify source fetchers.
func NewFetcher(exportDir string, apiKey string) *Fetcher {
	client := http.DefaultClient
	return &Fetcher{
		HTTPClient: client,
		ExportDir:  exportDir,
		APIKey:     apiKey,
		fetchers: map[string]SourceFetcher{
			"etherscan": &etherscanFetcher{client: client},
			"sourcify":  &sourcifyFetcher{client: client},
		},
	}
}

// Fetch resolves target through Start -> Resolving -> Materializing -> Re-dispatching -> Done, returning the
// materialized directory a second compile pass should be pointed at. If the directory already exists and
// contains crytic_compile.config.json, fetching is skipped and the existing directory is returned directly
// (the idempotence shortcut skips Resolving and Materializing). The states are reported only as debug log lines;
// no state value is kept or returned.
func (f *Fetcher) Fetch(ctx context.Context, rawTarget string) (string, error) {
	if utils.CheckContextDone(ctx) {
		return "", ctx.Err()
	}

	target, err := ParseTarget(rawTarget)
	if err != nil {
		return "", err
	}

	dir := f.materializedDir(target)

	if _, err := os.Stat(filepath.Join(dir, "crytic_compile.config.json")); err == nil {
		fetcherLogger.Debug(fmt.Sprintf("'%s' already materialized at '%s', skipping fetch", target.Address, dir))
		return dir, nil
	}

	fetcherLogger.Debug(fmt.Sprintf("state '%s' -> '%s' for '%s'", StateStart, StateResolving, target.Address))
	source, err := f.resolve(ctx, target)
	if err != nil {
		return "", fmt.Errorf("state '%s': %w", StateResolving, err)
	}

	fetcherLogger.Debug(fmt.Sprintf("state '%s' -> '%s' for '%s'", StateResolving, StateMaterializing, target.Address))
	if err := f.materialize(dir, source); err != nil {
		return "", fmt.Errorf("state '%s': %w", StateMaterializing, err)
	}

	fetcherLogger.Debug(fmt.Sprintf("state '%s' -> '%s' for '%s'", StateMaterializing, StateRedispatching, target.Address))
	return dir, nil
}

func (f *Fetcher) materializedDir(target Target) string {
	chain := target.Chain
	if chain == "" {
		chain = "mainnet"
	}
	return filepath.Join(f.ExportDir, target.Service+"-contracts", fmt.Sprintf("%s-%s", chain, target.Address))
}

// resolve queries the remote service for target, retrying HTTP 429 responses with exponential backoff and
// jitter up to 5 attempts. HTTP 404 (or a response indicating the contract is unverified) is a fatal
// errs.ErrSourceNotVerified; any other persistent failure is a fatal errs.ErrNetwork.
func (f *Fetcher) resolve(ctx context.Context, target Target) (*VerifiedSource, error) {
	fetcher, ok := f.fetchers[target.Service]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported verification service '%s'", errs.ErrInvalidTarget, target.Service)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 2 * time.Second
	if f.APIKey == "" {
		policy.InitialInterval = 5 * time.Second
	}
	policy.RandomizationFactor = 0.5
	retryPolicy := backoff.WithMaxRetries(policy, 4) // 1 initial attempt + 4 retries = 5 attempts

	var source *VerifiedSource
	operation := func() error {
		result, err := fetcher.FetchVerifiedSource(ctx, target, f.APIKey)
		if err != nil {
			var rateLimited *rateLimitError
			if errors.As(err, &rateLimited) {
				return err // retryable
			}
			return backoff.Permanent(err)
		}
		source = result
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(retryPolicy, ctx)); err != nil {
		var rateLimited *rateLimitError
		if errors.As(err, &rateLimited) {
			return nil, fmt.Errorf("%w: exceeded retry budget querying %s for '%s'", errs.ErrNetwork, target.Service, target.Address)
		}
		return nil, err
	}

	return source, nil
}

// materialize writes source's files to disk under dir, preserving the relative directory structure the service
// reported, and writes crytic_compile.config.json if source carries compiler settings.
func (f *Fetcher) materialize(dir string, source *VerifiedSource) error {
	for relPath, content := range source.Files {
		fullPath := filepath.Join(dir, filepath.FromSlash(relPath))
		if err := utils.MakeDirectory(filepath.Dir(fullPath)); err != nil {
			return fmt.Errorf("could not create directory for '%s': %w", relPath, err)
		}
		if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
			return fmt.Errorf("could not write materialized source '%s': %w", relPath, err)
		}
	}

	if source.Settings != nil {
		b, err := json.MarshalIndent(source.Settings, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, "crytic_compile.config.json"), b, 0644); err != nil {
			return fmt.Errorf("could not write crytic_compile.config.json: %w", err)
		}
	}

	return nil
}

// rateLimitError signals an HTTP 429 response, the only retryable failure mode in the fetcher protocol.
type rateLimitError struct {
	service string
}

func (e *rateLimitError) Error() string {
	return fmt.Sprintf("rate limited by %s", e.service)
}

// classifyHTTPError maps a service's HTTP response status to the fetcher's fixed failure taxonomy.
func classifyHTTPError(service string, resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return &rateLimitError{service: service}
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s has no verified source for this address", errs.ErrSourceNotVerified, service)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: %s responded with status %d: %s", errs.ErrNetwork, service, resp.StatusCode, string(body))
	}
}
