package ui

import (
	"context"
	"fmt"

	"github.com/mcpforge/mcpforge/kernel"
)

// SourceFunc is the callable form of a UI descriptor's source (spec.md §3,
// §4.11: "If source is callable, it is invoked at UI-read time").
type SourceFunc func(ctx context.Context) (any, error)

// Resource implements kernel.UIResource: it resolves a possibly-callable
// source, classifies it, and compiles the matching envelope.
type Resource struct {
	Def      kernel.UIResourceDefinition
	Source   any // string or SourceFunc
	Compiler *Compiler

	// OnAssets receives any synthetic ui-asset:// resources a folder-mode
	// compile produced, so the caller can register them with the registry.
	OnAssets func([]AssetResource)
}

func (r *Resource) Definition() kernel.UIResourceDefinition { return r.Def }

func (r *Resource) Read(ctx context.Context) (*kernel.ResourcesReadResult, error) {
	resolved, err := r.resolveSource(ctx)
	if err != nil {
		return nil, err
	}

	result, assets, err := r.Compiler.Compile(r.Def.URI, resolved)
	if err != nil {
		return nil, err
	}
	if len(assets) > 0 && r.OnAssets != nil {
		r.OnAssets(assets)
	}
	if r.Def.MimeType != "" && len(result.Contents) > 0 {
		result.Contents[0].MimeType = r.Def.MimeType
	}
	return result, nil
}

// resolveSource invokes a callable source exactly once; a callable that
// itself returns another callable is a configuration error raised at read
// time (spec.md §9 open question, resolved in SPEC_FULL.md §4).
func (r *Resource) resolveSource(ctx context.Context) (string, error) {
	switch v := r.Source.(type) {
	case string:
		return v, nil
	case SourceFunc:
		produced, err := v(ctx)
		if err != nil {
			return "", kernel.WrapError(kernel.KindExecution, fmt.Sprintf("UI source callable for %q", r.Def.URI), err)
		}
		if s, ok := produced.(string); ok {
			return s, nil
		}
		if _, ok := produced.(SourceFunc); ok {
			return "", kernel.NewError(kernel.KindConfiguration, fmt.Sprintf("UI source for %q returned a callable that itself returned a callable", r.Def.URI))
		}
		return "", kernel.NewError(kernel.KindConfiguration, fmt.Sprintf("UI source callable for %q returned a non-string value", r.Def.URI))
	default:
		return "", kernel.NewError(kernel.KindConfiguration, fmt.Sprintf("UI source for %q is neither a string nor a callable", r.Def.URI))
	}
}
