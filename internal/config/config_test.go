package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetUint_ParsesValue(t *testing.T) {
	os.Setenv("TEST_GET_UINT", "5")
	defer os.Unsetenv("TEST_GET_UINT")

	assert.Equal(t, uint(5), getUint("TEST_GET_UINT", 1))
}

func TestGetUint_NegativeFallsBackToDefault(t *testing.T) {
	os.Setenv("TEST_GET_UINT", "-1")
	defer os.Unsetenv("TEST_GET_UINT")

	assert.Equal(t, uint(1), getUint("TEST_GET_UINT", 1))
}

func TestGetUint_UnsetFallsBackToDefault(t *testing.T) {
	os.Unsetenv("TEST_GET_UINT")

	assert.Equal(t, uint(1), getUint("TEST_GET_UINT", 1))
}

func TestGetInt_GarbageFallsBackToDefault(t *testing.T) {
	os.Setenv("TEST_GET_INT", "banana")
	defer os.Unsetenv("TEST_GET_INT")

	assert.Equal(t, 7, getInt("TEST_GET_INT", 7))
}
