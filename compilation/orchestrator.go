package compilation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/trailofbits/ccompile/compilation/errs"
	"github.com/trailofbits/ccompile/compilation/platforms"
	"github.com/trailofbits/ccompile/compilation/types"
	"github.com/trailofbits/ccompile/compilation/verify"
	"github.com/trailofbits/ccompile/events"
)

// Orchestrator is the top-level façade over platform detection, adapter dispatch, and the handful of
// post-processing steps every compiled Project goes through regardless of which adapter produced it: merging
// multiple roots of a monorepo, resolving library placeholders across the merged result, and re-dispatching
// verification-fetcher targets through the platform registry once their sources are materialized.
type Orchestrator struct {
	// ExportDir is the "crytic-export" root the verification fetcher materializes sources under.
	ExportDir string

	// EtherscanAPIKey authenticates verification-fetcher requests against Etherscan-style APIs.
	EtherscanAPIKey string

	// PlatformDetected fires once per root after its platform has been resolved (by force-framework or detection).
	PlatformDetected events.EventEmitter[PlatformDetectedEvent]

	// CompilationUnitStarted fires immediately before a platform adapter's Compile is invoked.
	CompilationUnitStarted events.EventEmitter[CompilationUnitStartedEvent]

	// CompilationUnitCompleted fires after a platform adapter's Compile returns successfully.
	CompilationUnitCompleted events.EventEmitter[CompilationUnitCompletedEvent]

	// LibraryLinked fires once per library placeholder resolved during post-processing.
	LibraryLinked events.EventEmitter[LibraryLinkedEvent]
}

// NewOrchestrator returns an Orchestrator with no subscribers, materializing verification-fetcher output under
// exportDir and authenticating Etherscan-style requests with apiKey (may be empty).
func NewOrchestrator(exportDir string, apiKey string) *Orchestrator {
	return &Orchestrator{ExportDir: exportDir, EtherscanAPIKey: apiKey}
}

// CompileTarget resolves target to a platform (via forceFramework if non-empty, otherwise auto-detection) and
// compiles it, returning the resulting Project and the underlying tool's raw output. If target looks like a
// chain-prefixed contract address rather than a filesystem path, it is routed through the verification fetcher
// first and the materialized directory is compiled in its place.
func (o *Orchestrator) CompileTarget(target string, forceFramework string) (*types.Project, string, error) {
	target, err := o.resolveAddressTarget(target)
	if err != nil {
		return nil, "", err
	}

	var platformConfig platforms.PlatformConfig

	if forceFramework != "" {
		if !IsSupportedCompilationPlatform(forceFramework) {
			return nil, "", fmt.Errorf("%w: forced platform '%s' is not a supported platform", errs.ErrNoPlatformDetected, forceFramework)
		}
		platformConfig = GetDefaultPlatformConfig(forceFramework)
		platformConfig.SetTarget(target)
	} else {
		platformConfig, err = DetectOrFallback(target)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %w", errs.ErrInvalidTarget, err)
		}
	}

	return o.compilePlatformConfig(platformConfig)
}

// CompileWithConfig compiles using an already fully-populated CompilationConfig, such as one deserialized from a
// project configuration file. Unlike CompileTarget, the platform is never auto-detected or replaced with a fresh
// default: every platform-specific setting the config carries (solc args, remaps, a custom build command, and so
// on) is preserved. If the config's target looks like a chain-prefixed contract address, it is still routed
// through the verification fetcher first and the config is updated to point at the materialized directory.
func (o *Orchestrator) CompileWithConfig(compilationConfig *CompilationConfig) (*types.Project, string, error) {
	platformConfig, err := compilationConfig.GetPlatformConfig()
	if err != nil {
		return nil, "", err
	}

	target, err := o.resolveAddressTarget(platformConfig.GetTarget())
	if err != nil {
		return nil, "", err
	}
	platformConfig.SetTarget(target)

	return o.compilePlatformConfig(platformConfig)
}

// resolveAddressTarget routes target through the verification fetcher and returns the materialized directory in
// its place if target looks like a chain-prefixed contract address; otherwise it returns target unchanged.
func (o *Orchestrator) resolveAddressTarget(target string) (string, error) {
	if !verify.IsAddressTarget(target) {
		return target, nil
	}
	fetcher := verify.NewFetcher(o.ExportDir, o.EtherscanAPIKey)
	return fetcher.Fetch(context.Background(), target)
}

// compilePlatformConfig runs a resolved platformConfig through the Compile lifecycle, publishing events and
// linking libraries around the call.
func (o *Orchestrator) compilePlatformConfig(platformConfig platforms.PlatformConfig) (*types.Project, string, error) {
	target := platformConfig.GetTarget()

	o.PlatformDetected.Publish(PlatformDetectedEvent{Root: target, Platform: platformConfig.Platform()})
	o.CompilationUnitStarted.Publish(CompilationUnitStartedEvent{Root: target, Platform: platformConfig.Platform()})

	project, out, err := platformConfig.Compile()
	if err != nil {
		return nil, out, err
	}

	o.CompilationUnitCompleted.Publish(CompilationUnitCompletedEvent{
		Root:      target,
		Platform:  platformConfig.Platform(),
		UnitCount: len(project.Units),
	})

	o.linkLibraries(project)

	return project, out, nil
}

// CompileRoots compiles each of roots independently (via CompileTarget) and merges the resulting Projects into a
// single Project, failing with errs.ErrContractAmbiguous if two roots produced incompatible definitions of the
// same fully-qualified contract. This is the monorepo case: several independent Foundry/Hardhat sub-projects
// under one checkout.
func (o *Orchestrator) CompileRoots(roots []string, forceFramework string) (*types.Project, error) {
	merged := types.NewProject("monorepo")
	seen := make(map[string][]byte)

	for _, root := range roots {
		project, _, err := o.CompileTarget(root, forceFramework)
		if err != nil {
			return nil, err
		}

		for _, unit := range project.Units {
			for _, source := range unit.Sources {
				absolute := merged.RegisterFilename(source.Filename).Absolute()
				for name, contract := range source.Contracts {
					key := absolute + ":" + name
					encoded, err := json.Marshal(contract.Abi)
					if err != nil {
						return nil, fmt.Errorf("unable to encode ABI for contract '%s': %w", key, err)
					}

					if existing, ok := seen[key]; ok {
						if !bytes.Equal(existing, encoded) {
							return nil, fmt.Errorf("%w: contract '%s' compiled with a different ABI under root '%s' than a previous root", errs.ErrContractAmbiguous, key, root)
						}
						continue
					}
					seen[key] = encoded
				}
			}
			merged.AddUnit(unit)
		}
	}

	return merged, nil
}

// linkLibraries walks every contract of every unit in project and emits a LibraryLinked event for each
// placeholder that already carries a resolved library name (adapters resolve placeholders against same-unit
// libraries at compile time; this pass only reports what was resolved, it does not relink and does not compute a
// deployment order).
func (o *Orchestrator) linkLibraries(project *types.Project) {
	for _, unit := range project.Units {
		for sourcePath, source := range unit.Sources {
			for name, contract := range source.Contracts {
				for _, libName := range contract.LibraryPlaceholders {
					if libName == "" {
						continue
					}
					o.LibraryLinked.Publish(LibraryLinkedEvent{
						Contract: sourcePath + ":" + name,
						Library:  libName,
					})
				}
			}
		}
	}
}
