package backuprestore_test

import (
	"testing"

	"github.com/tigerroll/surfin-backuprestore/pkg/batch/catalog"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/core/backuprestore"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeTransforms_TokenizeCredentials(t *testing.T) {
	cat := test.NewTestCatalog("sf")
	p := catalog.NewPersister(cat)
	p.SetExcludeIDs(true)
	p.SetReferenceByName(true)
	tokenizer := backuprestore.NewCredentialTokenizer([]string{"passwd"})
	require.NoError(t, backuprestore.RegisterEncodeTransforms(p, tokenizer))

	store := cat.GetStoreByName("sf", "sf")
	data, err := p.Marshal(store)
	require.NoError(t, err)
	assert.Contains(t, string(data), "${sf.sf.passwd}")
	assert.NotContains(t, string(data), "secret-sf")
	assert.Contains(t, string(data), "db.local")
	assert.Equal(t, "secret-sf", store.ConnectionParameters["passwd"])

	dem := cat.GetStoreByName("sf", "dem")
	data, err = p.Marshal(dem)
	require.NoError(t, err)
	assert.Contains(t, string(data), "${sf.dem.url}")
	assert.NotContains(t, string(data), "dem.tif")

	assert.Equal(t, []string{"${sf.dem.url}", "${sf.sf.passwd}"}, tokenizer.Emitted())
}

func TestDecodeTransforms_ResolveTokens(t *testing.T) {
	source := test.NewTestCatalog("sf")
	encoder := catalog.NewPersister(source)
	encoder.SetReferenceByName(true)
	require.NoError(t, backuprestore.RegisterEncodeTransforms(encoder, backuprestore.NewCredentialTokenizer([]string{"passwd"})))

	storeData, err := encoder.Marshal(source.GetStoreByName("sf", "sf"))
	require.NoError(t, err)
	demData, err := encoder.Marshal(source.GetStoreByName("sf", "dem"))
	require.NoError(t, err)

	target := catalog.NewMemoryCatalog()
	require.NoError(t, target.Add(&catalog.WorkspaceInfo{Name: "sf"}))
	decoder := catalog.NewPersister(target)
	decoder.SetReferenceByName(true)
	codec := backuprestore.NewCredentialTokenCodec("${sf.sf.passwd}=restored|${sf.dem.url}=file:/mnt/dem.tif", "|")
	defer codec.Destroy()
	require.NoError(t, backuprestore.RegisterDecodeTransforms(decoder, codec))

	info, err := decoder.Unmarshal(storeData)
	require.NoError(t, err)
	store := info.(*catalog.StoreInfo)
	assert.Equal(t, "restored", store.ConnectionParameters["passwd"])
	assert.Equal(t, "db.local", store.ConnectionParameters["host"])
	assert.Same(t, target.GetWorkspaceByName("sf"), store.Workspace)

	info, err = decoder.Unmarshal(demData)
	require.NoError(t, err)
	assert.Equal(t, "file:/mnt/dem.tif", info.(*catalog.StoreInfo).URL)
}

func TestDecodeTransforms_UnknownTokenKept(t *testing.T) {
	source := test.NewTestCatalog("sf")
	encoder := catalog.NewPersister(source)
	encoder.SetReferenceByName(true)
	require.NoError(t, backuprestore.RegisterEncodeTransforms(encoder, backuprestore.NewCredentialTokenizer([]string{"passwd"})))
	data, err := encoder.Marshal(source.GetStoreByName("sf", "sf"))
	require.NoError(t, err)

	decoder := catalog.NewPersister(source)
	decoder.SetReferenceByName(true)
	codec := backuprestore.NewCredentialTokenCodec("${other.other.passwd}=x", ",")
	defer codec.Destroy()
	require.NoError(t, backuprestore.RegisterDecodeTransforms(decoder, codec))

	info, err := decoder.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, "${sf.sf.passwd}", info.(*catalog.StoreInfo).ConnectionParameters["passwd"])
}
