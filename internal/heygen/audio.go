package heygen

// AudioSource is the audio input the generate call accepts: either a public
// URL or a previously uploaded asset. The two constructors are the only way
// to build one, so a voice payload always carries exactly one variant.
type AudioSource interface {
	applyVoice(*voiceSettings)
	// Describe returns a short human-readable form for logs and journals.
	Describe() string
}

type audioAssetID string

func (a audioAssetID) applyVoice(v *voiceSettings) { v.AudioAssetID = string(a) }

func (a audioAssetID) Describe() string { return "asset:" + string(a) }

type audioURL string

func (a audioURL) applyVoice(v *voiceSettings) { v.AudioURL = string(a) }

func (a audioURL) Describe() string { return "url:" + string(a) }

// AudioAssetID references an uploaded asset by its server-issued identifier.
func AudioAssetID(id string) AudioSource { return audioAssetID(id) }

// AudioURL references a publicly reachable audio file.
func AudioURL(url string) AudioSource { return audioURL(url) }

type voiceSettings struct {
	Type         string `json:"type"`
	AudioAssetID string `json:"audio_asset_id,omitempty"`
	AudioURL     string `json:"audio_url,omitempty"`
}
