package types

// NatSpec holds a contract's user-doc ("notice" tags meant for end users) and dev-doc (implementation detail tags
// meant for developers) comments, folded together and keyed by the method/event signature strings solc uses in its
// userdoc/devdoc output (e.g. "transfer(address,uint256)"). Entries are not keyed by 4-byte selector.
type NatSpec struct {
	// Title is the contract-level @title tag, if present.
	Title string

	// Notice is the contract-level @notice tag, if present.
	Notice string

	// Methods maps a method identifier (solc's "sig(type,type)" form, or "constructor"/"fallback"/"receive") to
	// its folded documentation.
	Methods map[string]NatSpecEntry

	// Events maps an event signature to its folded documentation.
	Events map[string]NatSpecEntry
}

// NatSpecEntry holds the folded documentation for a single function or event.
type NatSpecEntry struct {
	// Notice is the @notice tag: user-facing description of what the function/event does.
	Notice string

	// Details is the @dev tag: developer-facing implementation notes.
	Details string

	// Params maps parameter name to its @param description.
	Params map[string]string

	// Return is the @return description, if present (solc only supports one for unnamed returns; named returns
	// are folded under Params-style keys by the compiler and passed through as-is here).
	Return string
}

// rawDoc mirrors the "methods"/"events" shape solc emits for --userdoc and --devdoc output.
type rawDoc struct {
	Title   string                    `json:"title,omitempty"`
	Notice  string                    `json:"notice,omitempty"`
	Details string                    `json:"details,omitempty"`
	Methods map[string]rawDocEntry    `json:"methods,omitempty"`
	Events  map[string]rawDocEntry    `json:"events,omitempty"`
	Errors  map[string][]rawDocEntry  `json:"errors,omitempty"`
	Stateful map[string]string        `json:"stateVariables,omitempty"`
}

type rawDocEntry struct {
	Notice  string            `json:"notice,omitempty"`
	Details string            `json:"details,omitempty"`
	Params  map[string]string `json:"params,omitempty"`
	Return  string            `json:"return,omitempty"`
}

// FoldNatSpec merges a contract's userdoc and devdoc objects (as decoded from solc's standard-json/combined-json
// "userdoc"/"devdoc" output, or any shape matching rawDoc) into a single NatSpec keyed by method/event signature.
func FoldNatSpec(userDoc any, devDoc any) *NatSpec {
	natspec := &NatSpec{
		Methods: make(map[string]NatSpecEntry),
		Events:  make(map[string]NatSpecEntry),
	}

	user := decodeRawDoc(userDoc)
	dev := decodeRawDoc(devDoc)

	if dev != nil {
		natspec.Title = dev.Title
	}
	if user != nil && natspec.Title == "" {
		natspec.Title = user.Title
	}
	if user != nil {
		natspec.Notice = user.Notice
	}

	for selector := range union(keysOf(user.methodsOrNil()), keysOf(dev.methodsOrNil())) {
		entry := NatSpecEntry{Params: make(map[string]string)}
		if user != nil {
			if u, ok := user.Methods[selector]; ok {
				entry.Notice = u.Notice
				entry.Return = u.Return
			}
		}
		if dev != nil {
			if d, ok := dev.Methods[selector]; ok {
				entry.Details = d.Details
				for k, v := range d.Params {
					entry.Params[k] = v
				}
				if entry.Return == "" {
					entry.Return = d.Return
				}
			}
		}
		natspec.Methods[selector] = entry
	}

	for selector := range union(keysOf(user.eventsOrNil()), keysOf(dev.eventsOrNil())) {
		entry := NatSpecEntry{Params: make(map[string]string)}
		if user != nil {
			if u, ok := user.Events[selector]; ok {
				entry.Notice = u.Notice
			}
		}
		if dev != nil {
			if d, ok := dev.Events[selector]; ok {
				entry.Details = d.Details
				for k, v := range d.Params {
					entry.Params[k] = v
				}
			}
		}
		natspec.Events[selector] = entry
	}

	return natspec
}

func (d *rawDoc) methodsOrNil() map[string]rawDocEntry {
	if d == nil {
		return nil
	}
	return d.Methods
}

func (d *rawDoc) eventsOrNil() map[string]rawDocEntry {
	if d == nil {
		return nil
	}
	return d.Events
}

func decodeRawDoc(v any) *rawDoc {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}

	doc := &rawDoc{
		Methods: make(map[string]rawDocEntry),
		Events:  make(map[string]rawDocEntry),
	}
	if title, ok := m["title"].(string); ok {
		doc.Title = title
	}
	if notice, ok := m["notice"].(string); ok {
		doc.Notice = notice
	}
	if methods, ok := m["methods"].(map[string]any); ok {
		for sig, raw := range methods {
			doc.Methods[sig] = decodeRawDocEntry(raw)
		}
	}
	if events, ok := m["events"].(map[string]any); ok {
		for sig, raw := range events {
			doc.Events[sig] = decodeRawDocEntry(raw)
		}
	}
	return doc
}

func decodeRawDocEntry(v any) rawDocEntry {
	entry := rawDocEntry{Params: make(map[string]string)}
	m, ok := v.(map[string]any)
	if !ok {
		return entry
	}
	if notice, ok := m["notice"].(string); ok {
		entry.Notice = notice
	}
	if details, ok := m["details"].(string); ok {
		entry.Details = details
	}
	if ret, ok := m["return"].(string); ok {
		entry.Return = ret
	}
	if params, ok := m["params"].(map[string]any); ok {
		for name, desc := range params {
			if s, ok := desc.(string); ok {
				entry.Params[name] = s
			}
		}
	}
	return entry
}

func keysOf(m map[string]rawDocEntry) map[string]struct{} {
	set := make(map[string]struct{}, len(m))
	for k := range m {
		set[k] = struct{}{}
	}
	return set
}

func union(a, b map[string]struct{}) map[string]struct{} {
	result := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		result[k] = struct{}{}
	}
	for k := range b {
		result[k] = struct{}{}
	}
	return result
}
