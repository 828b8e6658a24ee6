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
	"strings"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-signer/pkg/eip712"
	"github.com/hyperledger/firefly-signer/pkg/ethtypes"
	"github.com/hyperledger/firefly-signer/pkg/secp256k1"
	"github.com/ntclick/GmGM/internal/msgs"
	"github.com/ntclick/GmGM/pkg/confutil"
	"github.com/ntclick/GmGM/pkg/gmconf"
	"github.com/ntclick/GmGM/pkg/log"
)

const attestationType = "GMAttestation"

var attestationTypes = eip712.TypeSet{
	attestationType: {
		{Name: "handle", Type: "bytes32"},
		{Name: "inputProof", Type: "bytes"},
		{Name: "publicKey", Type: "bytes"},
		{Name: "user", Type: "address"},
	},
	eip712.EIP712Domain: {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
}

// Attestation binds an encrypted payload and the requesting public key to
// the user that produced them.
type Attestation struct {
	Handle     [32]byte
	InputProof []byte
	PublicKey  []byte
	User       *ethtypes.Address0xHex
}

type Domain struct {
	Name              string
	Version           string
	ChainID           int64
	VerifyingContract *ethtypes.Address0xHex
}

// Signer is the user's signing capability. SignHash is used for raw
// transactions, SignAttestation for the EIP-712 typed data.
type Signer interface {
	Address() *ethtypes.Address0xHex
	SignHash(ctx context.Context, hash []byte) (*secp256k1.SignatureData, error)
	SignAttestation(ctx context.Context, att *Attestation) (ethtypes.HexBytes0xPrefix, error)
}

type keySigner struct {
	kp     *secp256k1.KeyPair
	domain *Domain
}

func NewDomain(ctx context.Context, conf *gmconf.AttestationConfig, chainID int64) (*Domain, error) {
	vc := confutil.StringNotEmpty(conf.VerifyingContract, *gmconf.PipelineDefaults.Attestation.VerifyingContract)
	verifyingContract, err := ethtypes.NewAddress(vc)
	if err != nil {
		return nil, i18n.WrapError(ctx, err, msgs.MsgConfigInvalidAddress, "verifyingContract", vc)
	}
	return &Domain{
		Name:              confutil.StringNotEmpty(conf.Name, *gmconf.PipelineDefaults.Attestation.Name),
		Version:           confutil.StringNotEmpty(conf.Version, *gmconf.PipelineDefaults.Attestation.Version),
		ChainID:           chainID,
		VerifyingContract: verifyingContract,
	}, nil
}

// NewKeySigner loads a hex secp256k1 private key, with or without 0x prefix
func NewKeySigner(ctx context.Context, hexKey string, domain *Domain) (Signer, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, i18n.NewError(ctx, msgs.MsgConfigSignerKeyMissing)
	}
	keyBytes, err := hex.DecodeString(hexKey)
	if err != nil || len(keyBytes) != 32 {
		return nil, i18n.NewError(ctx, msgs.MsgConfigSignerKeyInvalid)
	}
	kp, err := secp256k1.NewSecp256k1KeyPair(keyBytes)
	if err != nil {
		return nil, i18n.WrapError(ctx, err, msgs.MsgConfigSignerKeyInvalid)
	}
	return WrapKeyPair(kp, domain), nil
}

func WrapKeyPair(kp *secp256k1.KeyPair, domain *Domain) Signer {
	return &keySigner{kp: kp, domain: domain}
}

func (s *keySigner) Address() *ethtypes.Address0xHex {
	addr := s.kp.Address
	return &addr
}

func (s *keySigner) SignHash(ctx context.Context, hash []byte) (*secp256k1.SignatureData, error) {
	sig, err := s.kp.SignDirect(hash)
	if err != nil {
		return nil, i18n.WrapError(ctx, err, msgs.MsgBroadcastSignFailed)
	}
	return sig, nil
}

func (s *keySigner) SignAttestation(ctx context.Context, att *Attestation) (ethtypes.HexBytes0xPrefix, error) {
	hash, err := AttestationHash(ctx, s.domain, att)
	if err != nil {
		return nil, err
	}
	sig, err := s.kp.SignDirect(hash)
	if err != nil {
		return nil, i18n.WrapError(ctx, err, msgs.MsgSigningFailed)
	}
	log.L(ctx).Debugf("Signed attestation for %s", att.User)
	return sig.CompactRSV(), nil
}

// AttestationHash is the EIP-712 v4 digest that SignAttestation signs
func AttestationHash(ctx context.Context, domain *Domain, att *Attestation) (ethtypes.HexBytes0xPrefix, error) {
	if att.User == nil {
		return nil, i18n.NewError(ctx, msgs.MsgSigningFailed)
	}
	hash, err := eip712.EncodeTypedDataV4(ctx, &eip712.TypedData{
		Types:       attestationTypes,
		PrimaryType: attestationType,
		Domain: map[string]interface{}{
			"name":              domain.Name,
			"version":           domain.Version,
			"chainId":           domain.ChainID,
			"verifyingContract": domain.VerifyingContract.String(),
		},
		Message: map[string]interface{}{
			"handle":     ethtypes.HexBytes0xPrefix(att.Handle[:]).String(),
			"inputProof": ethtypes.HexBytes0xPrefix(att.InputProof).String(),
			"publicKey":  ethtypes.HexBytes0xPrefix(att.PublicKey).String(),
			"user":       att.User.String(),
		},
	})
	if err != nil {
		return nil, i18n.WrapError(ctx, err, msgs.MsgSigningFailed)
	}
	return hash, nil
}

// RecoverAttestationSigner returns the address that produced a compact RSV
// attestation signature
func RecoverAttestationSigner(ctx context.Context, domain *Domain, att *Attestation, signature []byte) (*ethtypes.Address0xHex, error) {
	hash, err := AttestationHash(ctx, domain, att)
	if err != nil {
		return nil, err
	}
	sig, err := secp256k1.DecodeCompactRSV(ctx, signature)
	if err != nil {
		return nil, err
	}
	return sig.RecoverDirect(hash, domain.ChainID)
}
