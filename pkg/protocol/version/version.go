// Package version enumerates the supported Minecraft Java Edition protocol
// versions and provides the ordered lookups the rest of the server keys
// serialization decisions on. Comparison is always by numeric wire id;
// display names exist only for logging and the status response.
package version

// Protocol is the numeric wire id of a protocol revision (the value the
// client sends in the handshake).
type Protocol int32

// Supported protocol versions, oldest to newest. Where several game
// versions share a wire id the newest name is used.
const (
	V1_7_2  Protocol = 4
	V1_7_6  Protocol = 5
	V1_8    Protocol = 47
	V1_9    Protocol = 107
	V1_9_1  Protocol = 108
	V1_9_2  Protocol = 109
	V1_9_4  Protocol = 110
	V1_10   Protocol = 210
	V1_11   Protocol = 315
	V1_11_1 Protocol = 316
	V1_12   Protocol = 335
	V1_12_1 Protocol = 338
	V1_12_2 Protocol = 340
	V1_13   Protocol = 393
	V1_13_1 Protocol = 401
	V1_13_2 Protocol = 404
	V1_14   Protocol = 477
	V1_14_1 Protocol = 480
	V1_14_2 Protocol = 485
	V1_14_3 Protocol = 490
	V1_14_4 Protocol = 498
	V1_15   Protocol = 573
	V1_15_1 Protocol = 575
	V1_15_2 Protocol = 578
	V1_16   Protocol = 735
	V1_16_1 Protocol = 736
	V1_16_2 Protocol = 751
	V1_16_3 Protocol = 753
	V1_16_4 Protocol = 754
	V1_17   Protocol = 755
	V1_17_1 Protocol = 756
	V1_18   Protocol = 757
	V1_18_2 Protocol = 758
	V1_19   Protocol = 759
	V1_19_1 Protocol = 760
	V1_19_3 Protocol = 761
	V1_19_4 Protocol = 762
	V1_20   Protocol = 763
	V1_20_2 Protocol = 764
	V1_20_3 Protocol = 765
	V1_20_5 Protocol = 766
	V1_21   Protocol = 767
	V1_21_2 Protocol = 768
	V1_21_4 Protocol = 769
	V1_21_5 Protocol = 770
	V1_21_6 Protocol = 771
	V1_21_7 Protocol = 772
)

// ordered lists every supported version by ascending wire id. names maps
// each to its display name.
var ordered = []Protocol{
	V1_7_2, V1_7_6, V1_8,
	V1_9, V1_9_1, V1_9_2, V1_9_4,
	V1_10, V1_11, V1_11_1,
	V1_12, V1_12_1, V1_12_2,
	V1_13, V1_13_1, V1_13_2,
	V1_14, V1_14_1, V1_14_2, V1_14_3, V1_14_4,
	V1_15, V1_15_1, V1_15_2,
	V1_16, V1_16_1, V1_16_2, V1_16_3, V1_16_4,
	V1_17, V1_17_1,
	V1_18, V1_18_2,
	V1_19, V1_19_1, V1_19_3, V1_19_4,
	V1_20, V1_20_2, V1_20_3, V1_20_5,
	V1_21, V1_21_2, V1_21_4, V1_21_5, V1_21_6, V1_21_7,
}

var names = map[Protocol]string{
	V1_7_2: "1.7.2", V1_7_6: "1.7.6", V1_8: "1.8",
	V1_9: "1.9", V1_9_1: "1.9.1", V1_9_2: "1.9.2", V1_9_4: "1.9.4",
	V1_10: "1.10", V1_11: "1.11", V1_11_1: "1.11.1",
	V1_12: "1.12", V1_12_1: "1.12.1", V1_12_2: "1.12.2",
	V1_13: "1.13", V1_13_1: "1.13.1", V1_13_2: "1.13.2",
	V1_14: "1.14", V1_14_1: "1.14.1", V1_14_2: "1.14.2", V1_14_3: "1.14.3", V1_14_4: "1.14.4",
	V1_15: "1.15", V1_15_1: "1.15.1", V1_15_2: "1.15.2",
	V1_16: "1.16", V1_16_1: "1.16.1", V1_16_2: "1.16.2", V1_16_3: "1.16.3", V1_16_4: "1.16.4",
	V1_17: "1.17", V1_17_1: "1.17.1",
	V1_18: "1.18", V1_18_2: "1.18.2",
	V1_19: "1.19", V1_19_1: "1.19.1", V1_19_3: "1.19.3", V1_19_4: "1.19.4",
	V1_20: "1.20.1", V1_20_2: "1.20.2", V1_20_3: "1.20.4", V1_20_5: "1.20.6",
	V1_21: "1.21.1", V1_21_2: "1.21.3", V1_21_4: "1.21.4", V1_21_5: "1.21.5",
	V1_21_6: "1.21.6", V1_21_7: "1.21.8",
}

// All returns every supported version by ascending wire id. The returned
// slice is shared; callers must not modify it.
func All() []Protocol {
	return ordered
}

// Latest returns the newest supported version.
func Latest() Protocol {
	return ordered[len(ordered)-1]
}

// Oldest returns the oldest supported version.
func Oldest() Protocol {
	return ordered[0]
}

// FromNumber maps a client-supplied wire id to a supported version.
// Unknown ids clamp: above the maximum returns Latest, below the minimum
// returns Oldest, gaps map to the next older supported version.
func FromNumber(id int32) Protocol {
	p := Protocol(id)
	if p <= Oldest() {
		return Oldest()
	}
	if p >= Latest() {
		return Latest()
	}
	if _, ok := names[p]; ok {
		return p
	}
	// Gap between supported ids: fall back to the closest older version.
	prev := Oldest()
	for _, v := range ordered {
		if v > p {
			break
		}
		prev = v
	}
	return prev
}

// Name returns the display name, or "unknown" for an unsupported id.
func (p Protocol) Name() string {
	if n, ok := names[p]; ok {
		return n
	}
	return "unknown"
}

// AtLeast reports p >= v.
func (p Protocol) AtLeast(v Protocol) bool { return p >= v }

// AtMost reports p <= v.
func (p Protocol) AtMost(v Protocol) bool { return p <= v }

// Between reports lo <= p <= hi.
func (p Protocol) Between(lo, hi Protocol) bool { return p >= lo && p <= hi }

// BetweenInclusive returns every supported version in [lo, hi], in order.
func BetweenInclusive(lo, hi Protocol) []Protocol {
	var out []Protocol
	for _, v := range ordered {
		if v >= lo && v <= hi {
			out = append(out, v)
		}
	}
	return out
}
