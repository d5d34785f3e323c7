package compile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGoldenFixtures(t *testing.T) {
	fixtures, err := filepath.Glob(filepath.Join("..", "..", "testdata", "fixtures", "*.alt"))
	require.NoError(t, err)
	require.NotEmpty(t, fixtures)

	for _, inputPath := range fixtures {
		base := strings.TrimSuffix(inputPath, ".alt")
		expectedPath := base + ".expected.html"

		inputRaw, err := os.ReadFile(inputPath)
		require.NoError(t, err)
		expectedRaw, err := os.ReadFile(expectedPath)
		require.NoError(t, err)

		got, err := NewCompiler().Compile(filepath.Base(inputPath), string(inputRaw))
		require.NoError(t, err)

		require.Equal(t, strings.TrimSuffix(string(expectedRaw), "\n"), got.HTML)
	}
}
