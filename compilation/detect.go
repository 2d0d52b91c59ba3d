package compilation

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/trailofbits/ccompile/compilation/platforms"
)

// platformDetector recognizes a single platform's project marker at a candidate root directory.
type platformDetector struct {
	// Platform is the identifier this detector recognizes (must match a registered PlatformConfig.Platform()).
	Platform string

	// Priority orders candidates when more than one detector matches the same root; lower runs first.
	Priority int

	// Markers lists marker file glob patterns relative to the root; any single match is sufficient.
	Markers []string
}

// detectors lists every platform this package can auto-detect, ordered by how specific (and therefore how
// trustworthy) each one's marker files are. Archive import and Etherscan/Sourcify verification are not included
// here: the former is selected explicitly by the caller providing an archive file path, and the latter is
// triggered by the target itself being a contract address rather than a filesystem path.
var detectors = []platformDetector{
	{Platform: "foundry", Priority: 100, Markers: []string{"foundry.toml"}},
	{Platform: "hardhat-v3", Priority: 150, Markers: []string{"hardhat.config.ts", "hardhat.config.js", "hardhat.config.cts", "hardhat.config.mts"}},
	{Platform: "hardhat", Priority: 200, Markers: []string{"hardhat.config.ts", "hardhat.config.js"}},
	{Platform: "truffle", Priority: 300, Markers: []string{"truffle-config.js", "truffle.js"}},
	{Platform: "dapp", Priority: 400, Markers: []string{"Makefile", ".dapprc"}},
	{Platform: "brownie", Priority: 500, Markers: []string{"brownie-config.yaml"}},
	{Platform: "waffle", Priority: 600, Markers: []string{".waffle.json"}},
	{Platform: "embark", Priority: 700, Markers: []string{"embark.json"}},
	{Platform: "etherlime", Priority: 800, Markers: []string{"etherlime-config.json"}},
	{Platform: "buidler", Priority: 900, Markers: []string{"buidler.config.js"}},
}

// DetectPlatform inspects root for the marker files of every registered detector and returns the identifier of
// the highest-priority (lowest Priority value) match. An empty string is returned if nothing matched, in which
// case the caller should fall back to the direct solc/Vyper platform based on the target's file extension.
func DetectPlatform(root string) string {
	best := ""
	bestPriority := -1

	for _, detector := range detectors {
		for _, marker := range detector.Markers {
			matches, err := filepath.Glob(filepath.Join(root, marker))
			if err != nil || len(matches) == 0 {
				continue
			}
			if bestPriority == -1 || detector.Priority < bestPriority {
				best = detector.Platform
				bestPriority = detector.Priority
			}
			break
		}
	}

	// Hardhat v2 and v3 share config file names; disambiguate by inspecting package.json for the v3 toolbox.
	if best == "hardhat-v3" && !usesHardhatV3Toolbox(root) {
		best = "hardhat"
	}

	return best
}

// usesHardhatV3Toolbox reports whether root's package.json declares a dependency on Hardhat v3's toolbox package,
// which is the only reliable signal distinguishing a v3 project from a v2 one sharing the same config file name.
func usesHardhatV3Toolbox(root string) bool {
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return false
	}
	return bytes.Contains(data, []byte("@nomicfoundation/hardhat-toolbox-viem")) ||
		bytes.Contains(data, []byte("@nomicfoundation/hardhat-toolbox-mocha-ethers"))
}

// DetectOrFallback resolves the platform for target: if target is a directory, it runs DetectPlatform; if that
// fails, or target is a single file, it falls back to the direct solc/Vyper platform selected by file extension.
func DetectOrFallback(target string) (platforms.PlatformConfig, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, err
	}

	if info.IsDir() {
		if platform := DetectPlatform(target); platform != "" {
			config := GetDefaultPlatformConfig(platform)
			config.SetTarget(target)
			return config, nil
		}
	}

	if filepath.Ext(target) == ".vy" {
		return platforms.NewVyperCompilationConfig(target), nil
	}
	return platforms.NewSolcCompilationConfig(target), nil
}
