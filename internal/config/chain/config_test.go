package chain

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	configtypes "github.com/weisyn/powminer/pkg/types"
)

func TestNew_WithNilUserConfig_DefaultsToRegtest(t *testing.T) {
	cfg := New(nil)

	params, err := cfg.Params()

	require.NoError(t, err)
	assert.Equal(t, chaincfg.RegressionNetParams.Name, params.Name)
	assert.Equal(t, 30*time.Minute, cfg.GetOptions().CacheLifeWindow)
}

func TestNew_WithBadDuration_KeepsDefault(t *testing.T) {
	bad := "soon"

	cfg := New(&configtypes.UserChainConfig{CacheLifeWindow: &bad})

	assert.Equal(t, defaultCacheLifeWindow, cfg.GetOptions().CacheLifeWindow)
}

func TestNetParams_WithUnknownNetwork_ReturnsError(t *testing.T) {
	_, err := NetParams("nonet")

	assert.Error(t, err)
}
