package datapack

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"github.com/voxelio/voxel-studio/internal/models"
)

// ParseResult is a freshly parsed datapack
type ParseResult struct {
	Name     string
	Files    models.FileMap
	Elements ElementMap
	Version  *int
	IsModded bool
}

// Analyser parses, compiles and edits datapack elements
type Analyser interface {
	// Parse turns raw files into elements. Files that are not elements are
	// kept as passthrough content.
	Parse(ctx context.Context, name string, files models.FileMap) (*ParseResult, error)
	// Compile regenerates a file map from the original files and the current
	// elements. It must not mutate its arguments.
	Compile(files models.FileMap, elements ElementMap) (models.FileMap, error)
	// Apply returns the element with the action applied
	Apply(el Element, action Action) (Element, error)
}

const (
	packMetaPath  = "pack.mcmeta"
	fabricModPath = "fabric.mod.json"
	quiltModPath  = "quilt.mod.json"
	forgeModsPath = "META-INF/mods.toml"
	neoforgeMods  = "META-INF/neoforge.mods.toml"
)

// JSONAnalyser treats every JSON file under data/<namespace>/<registry>/ as an
// element and keeps the decoded JSON tree as element data
type JSONAnalyser struct{}

// NewJSONAnalyser creates the default analyser
func NewJSONAnalyser() *JSONAnalyser {
	return &JSONAnalyser{}
}

// Parse implements Analyser
func (a *JSONAnalyser) Parse(ctx context.Context, name string, files models.FileMap) (*ParseResult, error) {
	logger := zerolog.Ctx(ctx)

	result := &ParseResult{
		Name:     name,
		Files:    files.Clone(),
		Elements: make(ElementMap),
		IsModded: isModded(files),
	}

	meta, hasMeta := files[packMetaPath]
	if !hasMeta && !result.IsModded {
		return nil, invalid(name, "missing %s", packMetaPath)
	}
	if hasMeta {
		version, err := readPackFormat(meta)
		if err != nil {
			return nil, invalid(name, "unreadable %s: %v", packMetaPath, err)
		}
		result.Version = version
	}
	if modName := readModName(files); modName != "" {
		result.Name = modName
	}

	for _, p := range files.Paths() {
		id, ok := models.FromPath(p)
		if !ok {
			continue
		}
		data, err := decodeJSON(files[p])
		if err != nil {
			logger.Warn().Str("path", p).Err(err).Msg("keeping unparseable file as passthrough")
			continue
		}
		result.Elements[id.Key()] = Element{Identifier: id, Data: data, source: files[p]}
	}

	logger.Debug().
		Str("name", result.Name).
		Int("files", len(result.Files)).
		Int("elements", len(result.Elements)).
		Msg("parsed datapack")

	return result, nil
}

// Compile implements Analyser
func (a *JSONAnalyser) Compile(files models.FileMap, elements ElementMap) (models.FileMap, error) {
	out := make(models.FileMap, len(files))

	for p, data := range files {
		if isElementFile(p, data) {
			// emitted below, or dropped when the element was deleted
			continue
		}
		out[p] = data
	}

	for _, key := range elements.Keys() {
		el := elements[key]
		data, err := el.Bytes()
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s: %w", el.Identifier, err)
		}
		out[el.Identifier.FilePath()] = data
	}

	return out, nil
}

// Apply implements Analyser
func (a *JSONAnalyser) Apply(el Element, action Action) (Element, error) {
	data, err := applyAction(el.Data, action)
	if err != nil {
		return Element{}, err
	}
	return Element{Identifier: el.Identifier, Data: data}, nil
}

func isElementFile(p string, data []byte) bool {
	if _, ok := models.FromPath(p); !ok {
		return false
	}
	_, err := decodeJSON(data)
	return err == nil
}

func isModded(files models.FileMap) bool {
	for _, p := range []string{fabricModPath, quiltModPath, forgeModsPath, neoforgeMods} {
		if _, ok := files[p]; ok {
			return true
		}
	}
	return false
}

func readPackFormat(meta []byte) (*int, error) {
	var mcmeta struct {
		Pack struct {
			PackFormat *int `json:"pack_format"`
		} `json:"pack"`
	}
	if err := json.Unmarshal(meta, &mcmeta); err != nil {
		return nil, err
	}
	return mcmeta.Pack.PackFormat, nil
}

// readModName returns the display name declared by a mod loader manifest
func readModName(files models.FileMap) string {
	if data, ok := files[fabricModPath]; ok {
		var manifest struct {
			Name string `json:"name"`
		}
		if json.Unmarshal(data, &manifest) == nil && manifest.Name != "" {
			return manifest.Name
		}
	}

	for _, p := range []string{neoforgeMods, forgeModsPath} {
		data, ok := files[p]
		if !ok {
			continue
		}
		var manifest struct {
			Mods []struct {
				ModID       string `toml:"modId"`
				DisplayName string `toml:"displayName"`
			} `toml:"mods"`
		}
		if _, err := toml.Decode(string(data), &manifest); err != nil || len(manifest.Mods) == 0 {
			continue
		}
		if name := strings.TrimSpace(manifest.Mods[0].DisplayName); name != "" {
			return name
		}
		return manifest.Mods[0].ModID
	}

	return ""
}
