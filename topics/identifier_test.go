package topics

import (
	"strings"
	"testing"
)

func TestSanitizeAndChecksumKnownValues(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"hello world!", "ros2_hello_world_352223445"},
		{"topic", "ros2_topic110546223"},
		{"abc", "ros2_abc96354"},
		{"ABC_123", "ros2_ABC_123642017560"},
		{"OUTGOING_MESSAGE", "ros2_OUTGOING_MESSAGE995720530"},
		{"camera/front", "ros2_camera_front175251006"},
		{"sensor data stream #1", "ros2_sensor_data_stream__1762933022"},
	}
	for _, c := range cases {
		got := SanitizeAndChecksum(c.input)
		if got != c.want {
			t.Error(c.input, got, c.want)
		}
	}
}

func TestSanitizeAndChecksumEmptyInput(t *testing.T) {
	got := SanitizeAndChecksum("")
	if got != "ros2_0" {
		t.Error(got)
	}
}

func TestSanitizeAndChecksumCoversOriginalBytes(t *testing.T) {
	// Both sanitize to a_b; the checksum over the raw bytes keeps them apart.
	first := SanitizeAndChecksum("a!b")
	second := SanitizeAndChecksum("a@b")
	if first != "ros2_a_b94338" {
		t.Error(first)
	}
	if second != "ros2_a_b95299" {
		t.Error(second)
	}
	if first == second {
		t.Fail()
	}

	spaced := SanitizeAndChecksum("my key")
	dashed := SanitizeAndChecksum("my-key")
	if spaced != "ros2_my_key233382870" {
		t.Error(spaced)
	}
	if dashed != "ros2_my_key233770153" {
		t.Error(dashed)
	}
}

func TestSanitizeAndChecksumMultibyteInput(t *testing.T) {
	// é is two bytes in UTF-8 and becomes two underscores; the checksum still
	// runs over the original byte sequence.
	got := SanitizeAndChecksum("héllo")
	if got != "ros2_h__llo162660204" {
		t.Error(got)
	}
}

func TestSanitizeAndChecksumAlphabet(t *testing.T) {
	inputs := []string{
		"hello world!",
		"héllo",
		"a/b.c-d e\tf",
		"\x00\x01\xff",
		strings.Repeat("?", 300),
	}
	for _, input := range inputs {
		got := SanitizeAndChecksum(input)
		if !strings.HasPrefix(got, IdentifierPrefix) {
			t.Error(got)
		}
		for i := 0; i < len(got); i++ {
			b := got[i]
			ok := (b >= 'a' && b <= 'z') ||
				(b >= 'A' && b <= 'Z') ||
				(b >= '0' && b <= '9') ||
				b == '_'
			if !ok {
				t.Error(got, i)
			}
		}
	}
}

func TestSanitizeAndChecksumLengthBound(t *testing.T) {
	for n := 0; n <= 600; n += 13 {
		got := SanitizeAndChecksum(strings.Repeat("z", n))
		if len(got) > MaxIdentifierLength {
			t.Error(n, len(got))
		}
	}
	if len(SanitizeAndChecksum(strings.Repeat("x", 1000))) > MaxIdentifierLength {
		t.Fail()
	}
}

func TestSanitizeAndChecksumTruncationBoundary(t *testing.T) {
	// 242 payload bytes plus a nine digit checksum fills the budget exactly.
	exact := SanitizeAndChecksum(strings.Repeat("b", 242))
	if exact != IdentifierPrefix+strings.Repeat("b", 242)+"613695030" {
		t.Error(exact)
	}
	if len(exact) != MaxIdentifierLength {
		t.Error(len(exact))
	}

	// One more byte and the sanitized segment is cut, never the checksum.
	over := SanitizeAndChecksum(strings.Repeat("c", 243))
	if over != IdentifierPrefix+strings.Repeat("c", 242)+"483980040" {
		t.Error(over)
	}
	if len(over) != MaxIdentifierLength {
		t.Error(len(over))
	}

	// A shorter checksum leaves more room for the payload.
	short := SanitizeAndChecksum(strings.Repeat("b", 251))
	if short != IdentifierPrefix+strings.Repeat("b", 243)+"33741562" {
		t.Error(short)
	}
	if len(short) != MaxIdentifierLength {
		t.Error(len(short))
	}

	long := SanitizeAndChecksum(strings.Repeat("a", 300))
	if long != IdentifierPrefix+strings.Repeat("a", 242)+"935750867" {
		t.Error(long)
	}
}

func TestSanitizeAndChecksumDeterministic(t *testing.T) {
	inputs := []string{"", "topic", "hello world!", strings.Repeat("q", 400)}
	for _, input := range inputs {
		first := SanitizeAndChecksum(input)
		for i := 0; i < 5; i++ {
			if SanitizeAndChecksum(input) != first {
				t.Error(input)
			}
		}
	}
}
