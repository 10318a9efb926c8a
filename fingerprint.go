package replay

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DPFingerprint is the stable, hashable identity of a data-plane packet:
// the tuple of header fields invariant across retransmission, used to
// correlate a [DataplaneDrop]/[DataplanePermit] event with the packet the
// simulation's dataplane trace actually observed.
//
// DPFingerprint is comparable and therefore usable as a map key; the same
// packet bytes must always produce the same DPFingerprint, both when
// recording and when replaying.
type DPFingerprint struct {
	SrcMAC      string
	DstMAC      string
	EtherType   string
	SrcIP       string
	DstIP       string
	Proto       string
	PayloadHash string
}

// NewDPFingerprint canonicalizes the given header fields and a raw payload
// into a DPFingerprint. The payload is reduced to a short content hash
// rather than carried verbatim, keeping the fingerprint small and
// comparable while remaining a purely functional derivation of the packet
// bytes.
func NewDPFingerprint(srcMAC, dstMAC, etherType, srcIP, dstIP, proto string, payload []byte) DPFingerprint {
	return DPFingerprint{
		SrcMAC:      srcMAC,
		DstMAC:      dstMAC,
		EtherType:   etherType,
		SrcIP:       srcIP,
		DstIP:       dstIP,
		Proto:       proto,
		PayloadHash: hashBytes(payload),
	}
}

// String renders the fingerprint for logging and error messages.
func (f DPFingerprint) String() string {
	return fmt.Sprintf("%s>%s/%s %s>%s/%s #%s", f.SrcMAC, f.DstMAC, f.EtherType, f.SrcIP, f.DstIP, f.Proto, f.PayloadHash)
}

// OFFingerprint is the stable, hashable identity of an OpenFlow control
// message. Salience is type-dependent: a packet_out embeds the
// DPFingerprint of the packet it carries, a flow_mod fingerprints its match
// plus actions, and anything else falls back to a generic digest of its
// encoded bytes. See [NewOFFingerprintPacketOut], [NewOFFingerprintFlowMod],
// and [NewOFFingerprintGeneric].
//
// OFFingerprint is comparable and is the key type used by [GodScheduler].
type OFFingerprint struct {
	MessageType string
	Key         string
}

// NewOFFingerprintPacketOut fingerprints a packet_out message by embedding
// the DPFingerprint of the packet it carries.
func NewOFFingerprintPacketOut(dp DPFingerprint) OFFingerprint {
	return OFFingerprint{MessageType: "packet_out", Key: dp.String()}
}

// NewOFFingerprintFlowMod fingerprints a flow_mod message by its match and
// action fields, which are what determines its observable effect on the
// switch's forwarding table.
func NewOFFingerprintFlowMod(match, actions string) OFFingerprint {
	return OFFingerprint{MessageType: "flow_mod", Key: match + "|" + actions}
}

// NewOFFingerprintGeneric fingerprints any other OpenFlow message kind by a
// content hash of its encoded bytes. Used when no message-type-specific
// salience rule applies.
func NewOFFingerprintGeneric(messageType string, encoded []byte) OFFingerprint {
	return OFFingerprint{MessageType: messageType, Key: hashBytes(encoded)}
}

// String renders the fingerprint for logging and error messages.
func (f OFFingerprint) String() string {
	return f.MessageType + ":" + f.Key
}

func hashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:8])
}
