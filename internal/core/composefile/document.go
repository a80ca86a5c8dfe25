// Package composefile mutates Docker Compose documents in place.
//
// Documents are held as yaml.v3 node trees rather than typed structs so a
// load/mutate/encode round trip preserves comments, key order, and any
// structure unrelated to the mutation.
package composefile

import (
	"bytes"
	"context"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
	"gopkg.in/yaml.v3"

	"github.com/artpar/shipper/internal/core/target"
)

// Document is a round-trippable compose document.
type Document struct {
	root yaml.Node
}

// Parse decodes a compose document from raw YAML.
func Parse(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyDocument
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc.root); err != nil {
		return nil, ErrInvalidYAML
	}
	if len(doc.root.Content) == 0 {
		return nil, ErrEmptyDocument
	}
	if doc.root.Content[0].Kind != yaml.MappingNode {
		return nil, ErrNotMapping
	}
	return &doc, nil
}

// Encode serializes the document back to YAML, retaining comments and order.
func (d *Document) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&d.root); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// HasService reports whether a services.<name> mapping exists.
func (d *Document) HasService(name string) bool {
	return d.serviceNode(name) != nil
}

// SetServicePorts replaces the ports field of services.<name> with
// "host:container" entries derived from bindings, in binding order.
// The service entry must already exist; it is created at scaffolding time
// only, so its absence is a configuration-authoring bug.
func (d *Document) SetServicePorts(name string, bindings []target.PortBinding) error {
	svc := d.serviceNode(name)
	if svc == nil {
		return &ServiceError{Service: name, Err: ErrServiceNotFound}
	}

	ports := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, b := range bindings {
		ports.Content = append(ports.Content, &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!str",
			Style: yaml.DoubleQuotedStyle,
			Value: b.String(),
		})
	}

	setMappingValue(svc, "ports", ports)
	return nil
}

// Validate runs the compose loader over the serialized document so a
// malformed mutation surfaces at build time rather than on the remote host.
func (d *Document) Validate() error {
	raw, err := d.Encode()
	if err != nil {
		return err
	}

	var dict map[string]interface{}
	if err := yaml.Unmarshal(raw, &dict); err != nil {
		return ErrInvalidYAML
	}

	_, err = loader.LoadWithContext(context.Background(), types.ConfigDetails{
		ConfigFiles: []types.ConfigFile{
			{Content: raw, Config: dict},
		},
	}, func(opts *loader.Options) {
		opts.SetProjectName("shipper-build", false)
		opts.SkipValidation = false
		opts.SkipInterpolation = true // rendered documents carry no placeholders
		opts.SkipNormalization = true
		opts.SkipExtends = true
	})
	if err != nil {
		return &ServiceError{Service: "", Err: ErrInvalidCompose}
	}
	return nil
}

// =============================================================================
// Node Helpers
// =============================================================================

// serviceNode returns the mapping node for services.<name>, or nil.
func (d *Document) serviceNode(name string) *yaml.Node {
	services := mappingValue(d.root.Content[0], "services")
	if services == nil || services.Kind != yaml.MappingNode {
		return nil
	}
	return mappingValue(services, name)
}

// mappingValue returns the value node for key within a mapping node, or nil.
func mappingValue(mapping *yaml.Node, key string) *yaml.Node {
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

// setMappingValue replaces the value for key, or appends the pair when the
// key is absent.
func setMappingValue(mapping *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content[i+1] = value
			return
		}
	}
	mapping.Content = append(mapping.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		value,
	)
}

// ServiceNames returns the declared service names in document order.
func (d *Document) ServiceNames() []string {
	services := mappingValue(d.root.Content[0], "services")
	if services == nil || services.Kind != yaml.MappingNode {
		return nil
	}
	names := make([]string, 0, len(services.Content)/2)
	for i := 0; i+1 < len(services.Content); i += 2 {
		if name := strings.TrimSpace(services.Content[i].Value); name != "" {
			names = append(names, name)
		}
	}
	return names
}
