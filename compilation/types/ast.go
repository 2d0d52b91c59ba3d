package types

import (
	"encoding/json"
)

// ContractKind represents the kind of contract
type ContractKind string

const (
	ContractKindContract  ContractKind = "contract"
	ContractKindLibrary   ContractKind = "library"
	ContractKindInterface ContractKind = "interface"
	ContractKindAbstract  ContractKind = "abstract"
)

// ContractKindFromString converts a string to a ContractKind. Unrecognized values are returned as
// ContractKindContract rather than panicking, since platform adapters parse this field out of arbitrary
// third-party JSON and a new solc contract kind should not crash an otherwise successful compile.
func ContractKindFromString(s string) ContractKind {
	switch s {
	case "contract":
		return ContractKindContract
	case "library":
		return ContractKindLibrary
	case "interface":
		return ContractKindInterface
	case "abstract", "abstract contract":
		return ContractKindAbstract
	default:
		return ContractKindContract
	}
}

// Node interface represents a generic AST node
type Node interface {
	GetNodeType() string
}

// ContractDefinition is the contract definition node
type ContractDefinition struct {
	NodeType      string       `json:"nodeType"`
	ID            int          `json:"id,omitempty"`
	CanonicalName string       `json:"canonicalName,omitempty"`
	ContractKind  ContractKind `json:"contractKind,omitempty"`
}

func (s ContractDefinition) GetNodeType() string {
	return s.NodeType
}

// AST is the abstract syntax tree
type AST struct {
	NodeType string `json:"nodeType"`
	ID       int    `json:"id"`
	Nodes    []Node `json:"nodes"`
	Src      string `json:"src"`
}

// GetSourceUnitID returns the compiler-assigned numeric ID of this source unit, used to correlate source map
// entries (which reference sources by index) back to a SourceUnit.
func (a *AST) GetSourceUnitID() int {
	return a.ID
}

// UnmarshalJSON custom unmarshaller for AST
func (a *AST) UnmarshalJSON(data []byte) error {
	type Alias AST
	aux := &struct {
		Nodes []json.RawMessage `json:"nodes"`
		*Alias
	}{
		Alias: (*Alias)(a),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	// Check if nodeType is "SourceUnit"
	if aux.NodeType != "SourceUnit" {
		return nil
	}

	for _, nodeData := range aux.Nodes {
		var nodeType struct {
			NodeType string `json:"nodeType"`
		}

		if err := json.Unmarshal(nodeData, &nodeType); err != nil {
			return err
		}

		var node Node
		switch nodeType.NodeType {
		case "ContractDefinition":
			var cdef ContractDefinition
			if err := json.Unmarshal(nodeData, &cdef); err != nil {
				return err
			}
			node = cdef
		// Add cases for other node types as needed
		default:
			continue
		}

		a.Nodes = append(a.Nodes, node)
	}

	return nil
}
