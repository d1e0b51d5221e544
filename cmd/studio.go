package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/voxelio/voxel-studio/internal/config"
	"github.com/voxelio/voxel-studio/internal/datapack"
	"github.com/voxelio/voxel-studio/internal/models"
	"github.com/voxelio/voxel-studio/internal/remote"
	"github.com/voxelio/voxel-studio/internal/session"
	"github.com/voxelio/voxel-studio/internal/studio"
)

// appFs is the filesystem commands read uploads and the session from
var appFs = afero.NewOsFs()

func sessionStorage() *session.FileStorage {
	return session.NewFileStorage(appFs, config.GetSessionDir())
}

// openStudio builds the studio and restores the persisted working copy.
// The caller must Dispose it.
func openStudio(ctx context.Context) *studio.Studio {
	logger := zerolog.Ctx(ctx)
	s := studio.New(studio.Options{
		Analyser: datapack.NewJSONAnalyser(),
		Session:  session.New(sessionStorage(), *logger),
		Logger:   *logger,
	})
	s.Restore(ctx)
	s.Export.SetToken(config.GetAPIToken())
	return s
}

// loadedStudio is openStudio for commands that need a datapack
func loadedStudio(ctx context.Context) (*studio.Studio, error) {
	s := openStudio(ctx)
	if !s.Configurator.Loaded() {
		s.Dispose()
		return nil, fmt.Errorf("no datapack loaded - run: voxel load <archive|directory>")
	}
	return s, nil
}

func newClient() *remote.Client {
	return remote.NewClient(config.GetAPIURL(), config.GetAPIToken())
}

// resolveElement accepts a full key (registry/namespace:resource) or a
// namespace:resource reference that is unique across registries
func resolveElement(s *studio.Studio, ref string) (string, error) {
	if _, ok := s.Configurator.Element(ref); ok {
		return ref, nil
	}

	if !strings.Contains(ref, ":") {
		ref = "minecraft:" + ref
	}

	var matches []string
	for _, registry := range s.Configurator.Registries() {
		for _, id := range s.Configurator.SortedIdentifiers(registry) {
			if id.String() == ref {
				matches = append(matches, id.Key())
			}
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", datapack.ErrElementNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("ambiguous element %s, use one of: %s", ref, strings.Join(matches, ", "))
	}
}

// parseIdentifier accepts registry/namespace:resource
func parseIdentifier(ref string) (models.Identifier, error) {
	id, err := models.ParseKey(ref)
	if err != nil {
		return models.Identifier{}, fmt.Errorf("invalid element id %q (expected registry/namespace:resource): %w", ref, err)
	}
	return id, nil
}
