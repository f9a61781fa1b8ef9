// Package schema compiles JSON Schema documents for Node, Edge,
// JournalEntry and Run, and validates Node and Edge values against theirs,
// then applies the domain-specific checks JSON Schema cannot express
// (src != dst, score range, id non-empty). JournalEntry and Run have no
// validator function here.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/gotn-ai/gotn/internal/gotnerr"
	"github.com/gotn-ai/gotn/internal/model"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var compiled = map[string]*jsonschema.Schema{}

func init() {
	c := jsonschema.NewCompiler()
	names := []string{"node", "edge", "journal_entry", "run"}
	for _, name := range names {
		data, err := schemaFS.ReadFile("schemas/" + name + ".json")
		if err != nil {
			panic(fmt.Sprintf("schema: missing embedded schema %s: %v", name, err))
		}
		url := "mem://" + name + ".json"
		if err := c.AddResource(url, bytes.NewReader(data)); err != nil {
			panic(fmt.Sprintf("schema: add resource %s: %v", name, err))
		}
		s, err := c.Compile(url)
		if err != nil {
			panic(fmt.Sprintf("schema: compile %s: %v", name, err))
		}
		compiled[name] = s
	}
}

// violations accumulates "path: message" lines, sorted before being joined
// into one error so output is deterministic across runs.
type violations []string

func (v *violations) add(path, msg string) {
	*v = append(*v, fmt.Sprintf("%s: %s", path, msg))
}

func (v violations) err() error {
	if len(v) == 0 {
		return nil
	}
	sorted := append([]string(nil), v...)
	sort.Strings(sorted)
	msg := ""
	for i, line := range sorted {
		if i > 0 {
			msg += "; "
		}
		msg += line
	}
	return gotnerr.New(gotnerr.KindValidation, msg)
}

func validateAgainst(schemaName string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return gotnerr.Wrap(gotnerr.KindInternal, "marshal for validation", err)
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return gotnerr.Wrap(gotnerr.KindInternal, "unmarshal for validation", err)
	}
	if err := compiled[schemaName].Validate(doc); err != nil {
		return gotnerr.Wrap(gotnerr.KindValidation, schemaName+" schema validation failed", err)
	}
	return nil
}

// Node validates n against the node JSON Schema and domain invariants.
func Node(n *model.Node) error {
	if err := validateAgainst("node", n); err != nil {
		return err
	}
	var v violations
	if n.ID == "" {
		v.add("id", "must not be empty")
	}
	if n.Score < 0 || n.Score > 1 {
		v.add("score", "must be within [0,1]")
	}
	return v.err()
}

// Edge validates e against the edge JSON Schema and domain invariants.
func Edge(e *model.Edge) error {
	if err := validateAgainst("edge", e); err != nil {
		return err
	}
	var v violations
	if e.Src == "" || e.Dst == "" {
		v.add("src/dst", "must not be empty")
	}
	if e.Src == e.Dst {
		v.add("src", "must not equal dst")
	}
	return v.err()
}
