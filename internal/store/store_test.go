package store

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/voxelio/voxel-studio/internal/datapack"
	"github.com/voxelio/voxel-studio/internal/models"
	"github.com/voxelio/voxel-studio/internal/testutil"
)

var (
	sharpness = models.Identifier{Namespace: "voxel", Registry: "enchantment", Resource: "sharpness"}
	armory    = models.Identifier{Namespace: "voxel", Registry: "loot_table", Resource: "chests/armory"}
)

func parsePack(t *testing.T) *datapack.ParseResult {
	t.Helper()
	result, err := datapack.NewJSONAnalyser().Parse(context.Background(), "voxel.zip", testutil.TwoElementPack())
	require.NoError(t, err)
	return result
}

func loadedConfigurator(t *testing.T) *Configurator {
	t.Helper()
	cfg := NewConfigurator(datapack.NewJSONAnalyser(), zerolog.Nop())
	cfg.Setup(parsePack(t))
	return cfg
}

func setValue(t *testing.T, path string, v any) datapack.Action {
	t.Helper()
	action, err := datapack.SetValue(datapack.ParsePath(path), v)
	require.NoError(t, err)
	return action
}
