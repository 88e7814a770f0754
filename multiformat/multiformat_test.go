package multiformat_test

import (
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multihash"

	"github.com/byte4ever/hashdigest/digest"
	"github.com/byte4ever/hashdigest/multiformat"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func helloResult(tb testing.TB) digest.Result {
	tb.Helper()

	ac := digest.New()
	_, err := ac.WriteString("Hello world!\n")
	require.NoError(tb, err)

	return ac.Sum()
}

func TestMultihash_prefixes_code_and_length(t *testing.T) {
	t.Parallel()

	res := helloResult(t)

	for _, alg := range digest.Algorithms() {
		mh, err := multiformat.Multihash(res, alg)
		require.NoError(t, err, alg.Name)

		dec, err := multihash.Decode(mh)
		require.NoError(t, err, alg.Name)

		assert.Equal(t, alg.Size, dec.Length, alg.Name)
		assert.Equal(t, res.Raw(alg), dec.Digest, alg.Name)
	}
}

func TestMultihash_codes(t *testing.T) {
	t.Parallel()

	for alg, want := range map[string]uint64{
		"sha256": multihash.SHA2_256,
		"sha1":   multihash.SHA1,
		"md5":    multihash.MD5,
	} {
		a, err := digest.LookupAlgorithm(alg)
		require.NoError(t, err)

		code, err := multiformat.Code(a)
		require.NoError(t, err)
		assert.Equal(t, want, code)

		back, err := multiformat.Algorithm(code)
		require.NoError(t, err)
		assert.Equal(t, a.Name, back.Name)
	}

	_, err := multiformat.Algorithm(multihash.SHA2_512)
	assert.ErrorIs(t, err, multiformat.ErrUnsupportedCode)
}

func TestMultihash_zero_result(t *testing.T) {
	t.Parallel()

	_, err := multiformat.Multihash(digest.Result{}, digest.SHA256)

	assert.ErrorIs(t, err, multiformat.ErrEmptyResult)
}

func TestEncode_Decode_roundtrip(t *testing.T) {
	t.Parallel()

	res := helloResult(t)

	for _, base := range []multibase.Encoding{
		multiformat.DefaultBase,
		multibase.Base58BTC,
		multibase.Base64,
	} {
		for _, alg := range digest.Algorithms() {
			str, err := multiformat.Encode(res, alg, base)
			require.NoError(t, err)

			gotAlg, gotHex, err := multiformat.Decode(str)
			require.NoError(t, err)

			assert.Equal(t, alg.Name, gotAlg.Name)
			assert.Equal(t, res.Hex(alg), gotHex)
		}
	}
}

func TestEncode_base32_prefix(t *testing.T) {
	t.Parallel()

	str, err := multiformat.Encode(
		helloResult(t), digest.SHA256, multiformat.DefaultBase,
	)

	require.NoError(t, err)
	assert.Equal(t, byte('b'), str[0])
}

func TestDecode_rejects_garbage(t *testing.T) {
	t.Parallel()

	_, _, err := multiformat.Decode("!not-multibase")

	assert.Error(t, err)
}

func TestCID_empty_input(t *testing.T) {
	t.Parallel()

	got, err := multiformat.CID(digest.New().Sum())

	require.NoError(t, err)
	assert.Equal(
		t,
		"bafkreihdwdcefgh4dqkjv67uzcmw7ojee6xedzdetojuzjevtenxquvyku",
		got.String(),
	)
}

func TestCID_is_raw_sha256(t *testing.T) {
	t.Parallel()

	res := helloResult(t)

	got, err := multiformat.CID(res)
	require.NoError(t, err)

	pref := got.Prefix()
	assert.Equal(t, uint64(1), pref.Version)
	assert.Equal(t, uint64(cid.Raw), pref.Codec)
	assert.Equal(t, uint64(multihash.SHA2_256), pref.MhType)

	parsed, err := cid.Decode(got.String())
	require.NoError(t, err)
	assert.True(t, parsed.Equals(got))
}
