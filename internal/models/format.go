package models

// FormatLabel identifies one codec/bitrate encoding of a track.
//
// The names mirror the streaming backend's audio file formats so they can be
// parsed straight off the wire.
type FormatLabel int

const (
	FormatUnknown FormatLabel = iota
	OggVorbis96
	OggVorbis160
	OggVorbis320
	MP3_256
	MP3_320
	MP3_160
	MP3_96
	MP3_160Enc
	AAC_24
	AAC_48
	AAC_160
	AAC_320
	MP4_128
	Other5
	FLAC
	XHEAAC_24
	XHEAAC_16
	XHEAAC_12
	FLAC24Bit
)

var formatNames = map[FormatLabel]string{
	FormatUnknown: "UNKNOWN",
	OggVorbis96:   "OGG_VORBIS_96",
	OggVorbis160:  "OGG_VORBIS_160",
	OggVorbis320:  "OGG_VORBIS_320",
	MP3_256:       "MP3_256",
	MP3_320:       "MP3_320",
	MP3_160:       "MP3_160",
	MP3_96:        "MP3_96",
	MP3_160Enc:    "MP3_160_ENC",
	AAC_24:        "AAC_24",
	AAC_48:        "AAC_48",
	AAC_160:       "AAC_160",
	AAC_320:       "AAC_320",
	MP4_128:       "MP4_128",
	Other5:        "OTHER5",
	FLAC:          "FLAC_FLAC",
	XHEAAC_24:     "XHE_AAC_24",
	XHEAAC_16:     "XHE_AAC_16",
	XHEAAC_12:     "XHE_AAC_12",
	FLAC24Bit:     "FLAC_FLAC_24BIT",
}

var formatsByName = func() map[string]FormatLabel {
	m := make(map[string]FormatLabel, len(formatNames))
	for f, name := range formatNames {
		m[name] = f
	}
	return m
}()

func (f FormatLabel) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return formatNames[FormatUnknown]
}

// ParseFormat maps a wire name such as "FLAC_FLAC_24BIT" to its label.
// Unrecognized names map to [FormatUnknown].
func ParseFormat(name string) FormatLabel {
	if f, ok := formatsByName[name]; ok {
		return f
	}
	return FormatUnknown
}

// Extension returns the file extension artifacts of this format are written with.
func (f FormatLabel) Extension() string {
	switch f {
	case FLAC, FLAC24Bit:
		return "flac"
	case MP3_96, MP3_160, MP3_160Enc, MP3_256, MP3_320:
		return "mp3"
	case AAC_24, AAC_48, AAC_160, AAC_320, XHEAAC_24, XHEAAC_16, XHEAAC_12:
		return "aac"
	case OggVorbis96, OggVorbis160, OggVorbis320:
		return "ogg"
	case MP4_128:
		return "mp4"
	default:
		return "dat"
	}
}

// MarshalText implements [encoding.TextMarshaler] so labels render by name in JSON.
func (f FormatLabel) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (f *FormatLabel) UnmarshalText(b []byte) error {
	*f = ParseFormat(string(b))
	return nil
}
