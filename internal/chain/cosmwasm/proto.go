package cosmwasm

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/mrz1836/lendkit/internal/chain"
)

// Protobuf type URLs for the messages this client builds.
const (
	typeURLExecuteContract     = "/cosmwasm.wasm.v1.MsgExecuteContract"
	typeURLInstantiateContract = "/cosmwasm.wasm.v1.MsgInstantiateContract"
	typeURLSecp256k1PubKey     = "/cosmos.crypto.secp256k1.PubKey"
)

// Sign modes from cosmos.tx.signing.v1beta1.SignMode.
const (
	signModeUnspecified uint64 = 0
	signModeDirect      uint64 = 1
)

// anyMsg is a google.protobuf.Any.
type anyMsg struct {
	TypeURL string
	Value   []byte
}

// Zero-valued scalars are omitted, matching the canonical encoding the node
// uses when it rebuilds a SignDoc for verification.

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendUint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// appendMessage always writes the field, even when the embedded message is empty.
func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

func encodeAny(a anyMsg) []byte {
	var b []byte
	b = appendString(b, 1, a.TypeURL)
	b = appendBytes(b, 2, a.Value)
	return b
}

func encodeCoin(c chain.Coin) []byte {
	var b []byte
	b = appendString(b, 1, c.Denom)
	b = appendString(b, 2, c.Amount)
	return b
}

// encodeMsgExecuteContract encodes cosmwasm.wasm.v1.MsgExecuteContract.
func encodeMsgExecuteContract(sender, contract string, msg []byte, funds []chain.Coin) anyMsg {
	var b []byte
	b = appendString(b, 1, sender)
	b = appendString(b, 2, contract)
	b = appendBytes(b, 3, msg)
	for _, c := range funds {
		b = appendMessage(b, 5, encodeCoin(c))
	}
	return anyMsg{TypeURL: typeURLExecuteContract, Value: b}
}

// encodeMsgInstantiateContract encodes cosmwasm.wasm.v1.MsgInstantiateContract.
func encodeMsgInstantiateContract(sender, admin string, codeID uint64, label string, msg []byte, funds []chain.Coin) anyMsg {
	var b []byte
	b = appendString(b, 1, sender)
	b = appendString(b, 2, admin)
	b = appendUint(b, 3, codeID)
	b = appendString(b, 4, label)
	b = appendBytes(b, 5, msg)
	for _, c := range funds {
		b = appendMessage(b, 6, encodeCoin(c))
	}
	return anyMsg{TypeURL: typeURLInstantiateContract, Value: b}
}

// encodeTxBody encodes cosmos.tx.v1beta1.TxBody.
func encodeTxBody(msgs []anyMsg, memo string) []byte {
	var b []byte
	for _, m := range msgs {
		b = appendMessage(b, 1, encodeAny(m))
	}
	b = appendString(b, 2, memo)
	return b
}

func encodePubKey(compressed []byte) anyMsg {
	return anyMsg{
		TypeURL: typeURLSecp256k1PubKey,
		Value:   appendBytes(nil, 1, compressed),
	}
}

// encodeSignerInfo encodes cosmos.tx.v1beta1.SignerInfo with a single sign mode.
func encodeSignerInfo(pubKey []byte, mode, sequence uint64) []byte {
	single := appendUint(nil, 1, mode)
	modeInfo := appendMessage(nil, 1, single)

	var b []byte
	b = appendMessage(b, 1, encodeAny(encodePubKey(pubKey)))
	b = appendMessage(b, 2, modeInfo)
	b = appendUint(b, 3, sequence)
	return b
}

// encodeFee encodes cosmos.tx.v1beta1.Fee.
func encodeFee(amount []chain.Coin, gasLimit uint64) []byte {
	var b []byte
	for _, c := range amount {
		b = appendMessage(b, 1, encodeCoin(c))
	}
	b = appendUint(b, 2, gasLimit)
	return b
}

// encodeAuthInfo encodes cosmos.tx.v1beta1.AuthInfo for a single signer.
func encodeAuthInfo(pubKey []byte, mode, sequence uint64, feeAmount []chain.Coin, gasLimit uint64) []byte {
	var b []byte
	b = appendMessage(b, 1, encodeSignerInfo(pubKey, mode, sequence))
	b = appendMessage(b, 2, encodeFee(feeAmount, gasLimit))
	return b
}

// encodeSignDoc encodes cosmos.tx.v1beta1.SignDoc.
func encodeSignDoc(doc chain.SignDoc) []byte {
	var b []byte
	b = appendBytes(b, 1, doc.BodyBytes)
	b = appendBytes(b, 2, doc.AuthInfoBytes)
	b = appendString(b, 3, doc.ChainID)
	b = appendUint(b, 4, doc.AccountNumber)
	return b
}

// encodeTxRaw encodes cosmos.tx.v1beta1.TxRaw. Signatures are written even when
// empty so that simulation sees one signature slot per signer.
func encodeTxRaw(body, authInfo []byte, signatures ...[]byte) []byte {
	var b []byte
	b = appendBytes(b, 1, body)
	b = appendBytes(b, 2, authInfo)
	for _, sig := range signatures {
		b = appendMessage(b, 3, sig)
	}
	return b
}

// SignBytes returns the bytes a SIGN_MODE_DIRECT signer hashes and signs.
func SignBytes(doc chain.SignDoc) []byte {
	return encodeSignDoc(doc)
}
