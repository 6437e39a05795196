package heygen

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// RenderOptions carries the tunable parts of the generate payload. Zero
// values fall back to the service's documented defaults.
type RenderOptions struct {
	Width       int
	Height      int
	AvatarStyle string
	Background  string
	Test        bool
}

const (
	defaultRenderWidth  = 1280
	defaultRenderHeight = 720
	defaultAvatarStyle  = "normal"
)

func (o RenderOptions) withDefaults() RenderOptions {
	if o.Width <= 0 {
		o.Width = defaultRenderWidth
	}
	if o.Height <= 0 {
		o.Height = defaultRenderHeight
	}
	if o.AvatarStyle == "" {
		o.AvatarStyle = defaultAvatarStyle
	}
	return o
}

type characterPayload struct {
	Type        string `json:"type"`
	AvatarID    string `json:"avatar_id"`
	AvatarStyle string `json:"avatar_style"`
}

type videoInput struct {
	Character  characterPayload `json:"character"`
	Voice      voiceSettings    `json:"voice"`
	Background *backgroundInput `json:"background,omitempty"`
}

type backgroundInput struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type dimension struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type generateRequest struct {
	VideoInputs []videoInput `json:"video_inputs"`
	Dimension   dimension    `json:"dimension"`
	Test        bool         `json:"test"`
}

// GenerateVideo submits one avatar-plus-audio rendering job and returns the
// remote job identifier.
func (c *Client) GenerateVideo(ctx context.Context, avatarID string, audio AudioSource, opts RenderOptions) (string, error) {
	if avatarID == "" {
		return "", errors.New("generate video: avatar id required")
	}
	if audio == nil {
		return "", errors.New("generate video: audio source required")
	}
	opts = opts.withDefaults()

	voice := voiceSettings{Type: "audio"}
	audio.applyVoice(&voice)

	input := videoInput{
		Character: characterPayload{
			Type:        "avatar",
			AvatarID:    avatarID,
			AvatarStyle: opts.AvatarStyle,
		},
		Voice: voice,
	}
	if opts.Background != "" {
		input.Background = &backgroundInput{Type: "color", Value: opts.Background}
	}
	payload := generateRequest{
		VideoInputs: []videoInput{input},
		Dimension:   dimension{Width: opts.Width, Height: opts.Height},
		Test:        opts.Test,
	}

	endpoint, err := url.JoinPath(c.baseURL, "/v2/video/generate")
	if err != nil {
		return "", fmt.Errorf("generate video: build url: %w", err)
	}

	var envelope struct {
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Data *struct {
			VideoID string `json:"video_id"`
		} `json:"data"`
	}
	if err := c.postJSON(ctx, endpoint, payload, &envelope); err != nil {
		return "", fmt.Errorf("generate video: %w", err)
	}
	if envelope.Error != nil {
		return "", fmt.Errorf("generate video: %w", &APIError{Message: envelope.Error.Message})
	}
	if envelope.Data == nil || envelope.Data.VideoID == "" {
		return "", errors.New("generate video: response missing video id")
	}
	return envelope.Data.VideoID, nil
}
