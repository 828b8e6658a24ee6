// Copyright © 2025 Kaleido, Inc.
//
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package signing

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/hyperledger/firefly-signer/pkg/ethtypes"
	"github.com/hyperledger/firefly-signer/pkg/secp256k1"
	"github.com/ntclick/GmGM/pkg/confutil"
	"github.com/ntclick/GmGM/pkg/gmconf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"
)

func newTestSigner(t *testing.T) (context.Context, Signer, *Domain) {
	ctx := context.Background()
	domain, err := NewDomain(ctx, &gmconf.AttestationConfig{}, 11155111)
	require.NoError(t, err)
	kp, err := secp256k1.GenerateSecp256k1KeyPair()
	require.NoError(t, err)
	return ctx, WrapKeyPair(kp, domain), domain
}

func testAttestation(s Signer) *Attestation {
	att := &Attestation{
		InputProof: []byte{0x01, 0x02, 0x03},
		PublicKey:  []byte{0xaa, 0xbb},
		User:       s.Address(),
	}
	att.Handle[31] = 0x42
	return att
}

func TestNewDomainDefaults(t *testing.T) {
	domain, err := NewDomain(context.Background(), &gmconf.AttestationConfig{}, 11155111)
	require.NoError(t, err)
	assert.Equal(t, "Zama FHE", domain.Name)
	assert.Equal(t, "1", domain.Version)
	assert.Equal(t, int64(11155111), domain.ChainID)
	assert.Equal(t, "0x0000000000000000000000000000000000000000", domain.VerifyingContract.String())
}

func TestNewDomainBadContract(t *testing.T) {
	_, err := NewDomain(context.Background(), &gmconf.AttestationConfig{
		VerifyingContract: confutil.P("not an address"),
	}, 1)
	assert.Regexp(t, "GM010004.*verifyingContract", err)
}

func TestSignAttestationRecover(t *testing.T) {
	ctx, s, domain := newTestSigner(t)
	att := testAttestation(s)

	sig, err := s.SignAttestation(ctx, att)
	require.NoError(t, err)
	assert.Len(t, sig, 65)

	addr, err := RecoverAttestationSigner(ctx, domain, att, sig)
	require.NoError(t, err)
	assert.Equal(t, s.Address().String(), addr.String())
}

func TestAttestationHashCoversPayload(t *testing.T) {
	ctx, s, domain := newTestSigner(t)
	att := testAttestation(s)
	h1, err := AttestationHash(ctx, domain, att)
	require.NoError(t, err)
	assert.Len(t, h1, 32)

	att.Handle[0] = 0x01
	h2, err := AttestationHash(ctx, domain, att)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)

	otherDomain := *domain
	otherDomain.ChainID = 1
	h3, err := AttestationHash(ctx, &otherDomain, att)
	require.NoError(t, err)
	assert.NotEqual(t, h2, h3)
}

func TestAttestationHashMissingUser(t *testing.T) {
	ctx, s, domain := newTestSigner(t)
	att := testAttestation(s)
	att.User = nil
	_, err := s.SignAttestation(ctx, att)
	assert.Regexp(t, "GM010400", err)
	_, err = AttestationHash(ctx, domain, att)
	assert.Regexp(t, "GM010400", err)
}

func TestSignHash(t *testing.T) {
	ctx, s, _ := newTestSigner(t)
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte("gm"))
	digest := h.Sum(nil)

	sig, err := s.SignHash(ctx, digest)
	require.NoError(t, err)
	addr, err := sig.RecoverDirect(digest, 11155111)
	require.NoError(t, err)
	assert.Equal(t, s.Address().String(), addr.String())
}

func TestNewKeySigner(t *testing.T) {
	ctx := context.Background()
	kp, err := secp256k1.GenerateSecp256k1KeyPair()
	require.NoError(t, err)
	keyHex := hex.EncodeToString(kp.PrivateKeyBytes())

	s, err := NewKeySigner(ctx, "0x"+keyHex, &Domain{VerifyingContract: &ethtypes.Address0xHex{}})
	require.NoError(t, err)
	assert.Equal(t, kp.Address.String(), s.Address().String())

	s, err = NewKeySigner(ctx, " "+keyHex+" ", nil)
	require.NoError(t, err)
	assert.Equal(t, kp.Address.String(), s.Address().String())
}

func TestNewKeySignerErrors(t *testing.T) {
	ctx := context.Background()
	_, err := NewKeySigner(ctx, "", nil)
	assert.Regexp(t, "GM010006", err)
	_, err = NewKeySigner(ctx, "0xzz", nil)
	assert.Regexp(t, "GM010005", err)
	_, err = NewKeySigner(ctx, "0x0102", nil)
	assert.Regexp(t, "GM010005", err)
}
