package entity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var gateways = []string{"https://gateway.example.com"}

func cid() string {
	return "Qm" + strings.Repeat("a", 44)
}

func TestMetadataURI_PassesHttpThrough(t *testing.T) {
	item := Item{URI: "https://meta.example.com/1.json"}

	uri, err := item.MetadataURI(gateways)
	require.NoError(t, err)

	assert.Equal(t, "https://meta.example.com/1.json", uri)
}

func TestMetadataURI_RewritesIpfsScheme(t *testing.T) {
	item := Item{URI: "ipfs://" + cid()}

	uri, err := item.MetadataURI(gateways)
	require.NoError(t, err)

	assert.Equal(t, "https://gateway.example.com/ipfs/"+cid(), uri)
}

func TestMetadataURI_RewritesBareCid(t *testing.T) {
	item := Item{URI: cid()}

	uri, err := item.MetadataURI(gateways)
	require.NoError(t, err)

	assert.Equal(t, "https://gateway.example.com/ipfs/"+cid(), uri)
}

func TestMetadataURI_NoGatewayConfigured(t *testing.T) {
	item := Item{URI: "ipfs://" + cid()}

	_, err := item.MetadataURI(nil)

	assert.Error(t, err)
}

func TestMetadataURI_RejectsUnresolvableUri(t *testing.T) {
	item := Item{URI: "ftp://meta.example.com/1.json"}

	_, err := item.MetadataURI(gateways)

	assert.Error(t, err)
}

func TestItemSlug(t *testing.T) {
	assert.Equal(t, "item-42", Item{ItemID: 42}.Slug())
}
