package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	speechmodel "github.com/zhouzirui/aura/backend/internal/model/speech"
)

// DefaultTTSEndpoint 火山引擎单向流式 TTS 接口
const DefaultTTSEndpoint = "wss://openspeech.bytedance.com/api/v3/tts/unidirectional/stream"

const (
	defaultResource = "volc.service_type.10029"
	megaResource    = "volc.megatts.default"
	seedResource    = "seed-tts-2.0"
)

var errEmptyAudio = errors.New("TTS audio is empty")

// TTSClient 火山引擎 TTS websocket 客户端
type TTSClient struct {
	config     *speechmodel.SpeechConfig
	dialer     *websocket.Dialer
	maxRetries int
	retryDelay time.Duration
}

// NewTTSClient 创建 TTS 客户端
func NewTTSClient(config *speechmodel.SpeechConfig) *TTSClient {
	return &TTSClient{
		config:     config,
		dialer:     &websocket.Dialer{HandshakeTimeout: 30 * time.Second},
		maxRetries: 3,
		retryDelay: time.Second,
	}
}

type ttsRequestBody struct {
	User struct {
		UID string `json:"uid"`
	} `json:"user"`
	ReqParams struct {
		Speaker     string         `json:"speaker"`
		Text        string         `json:"text"`
		AudioParams ttsAudioParams `json:"audio_params"`
		Additions   string         `json:"additions,omitempty"`
		Language    string         `json:"language,omitempty"`
	} `json:"req_params"`
}

type ttsAudioParams struct {
	Format       string  `json:"format"`
	SampleRate   int     `json:"sample_rate"`
	SpeedRatio   float32 `json:"speed_ratio,omitempty"`
	VolumeRatio  float32 `json:"volume_ratio,omitempty"`
	Emotion      string  `json:"emotion,omitempty"`
	EmotionScale float32 `json:"emotion_scale,omitempty"`
}

type ttsServerPayload struct {
	ReqID    string `json:"reqid"`
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Sequence int    `json:"sequence"`
	Data     string `json:"data"`
	Addition struct {
		Duration string `json:"duration,omitempty"`
	} `json:"addition,omitempty"`
}

// Synthesize 合成一段语音。音色与资源 ID 不匹配时依次尝试候选组合。
func (c *TTSClient) Synthesize(ctx context.Context, req *speechmodel.TTSRequest) (*speechmodel.TTSResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, errors.New("TTS text is empty")
	}

	appID, token, err := credentials(c.config)
	if err != nil {
		return nil, err
	}

	var lastMismatch error
	for _, speaker := range speakerCandidates(req.Voice, c.config.TTSVoice) {
		for _, resourceID := range resourceCandidates(speaker) {
			resp, err := c.synthesizeOnce(ctx, req, appID, token, speaker, resourceID)
			if err == nil {
				return resp, nil
			}
			if !isResourceMismatch(err) {
				return nil, err
			}
			log.Printf("[speech] voice %s resource %s mismatch: %v", speaker, resourceID, err)
			lastMismatch = err
		}
	}

	if lastMismatch != nil {
		return nil, lastMismatch
	}
	return nil, errors.New("TTS synthesis failed: no voice configured")
}

func (c *TTSClient) endpoint() string {
	if url := strings.TrimSpace(c.config.BaseURL); url != "" {
		return url
	}
	return DefaultTTSEndpoint
}

func (c *TTSClient) synthesizeOnce(ctx context.Context, req *speechmodel.TTSRequest, appID, token, speaker, resourceID string) (*speechmodel.TTSResponse, error) {
	connectID := uuid.NewString()

	header := http.Header{}
	header.Set("X-Api-App-Key", appID)
	header.Set("X-Api-Access-Key", token)
	header.Set("X-Api-Resource-Id", resourceID)
	header.Set("X-Api-Connect-Id", connectID)

	conn, err := c.dial(ctx, header)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	// 阻塞读在 ctx 结束时随连接关闭返回
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	body, err := json.Marshal(c.buildRequest(req, speaker))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal TTS request: %w", err)
	}
	compressed, err := gzipBytes(body)
	if err != nil {
		return nil, err
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, NewClientRequest(compressed, GzipCompression).Encode()); err != nil {
		return nil, fmt.Errorf("failed to send TTS request: %w", err)
	}

	resp, err := collectAudio(conn)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}

	resp.SessionID = req.SessionID
	resp.Format = audioFormat(req.Format)
	resp.Emotion = req.Emotion
	if resp.RequestID == "" {
		resp.RequestID = connectID
	}
	return resp, nil
}

// dial 建立连接，网络类错误按递增间隔重试，握手被拒绝时直接返回。
func (c *TTSClient) dial(ctx context.Context, header http.Header) (*websocket.Conn, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		conn, resp, err := c.dialer.DialContext(ctx, c.endpoint(), header)
		if err == nil {
			if logID := resp.Header.Get("X-Tt-Logid"); logID != "" {
				log.Printf("[speech] TTS connected with logid: %s", logID)
			}
			return conn, nil
		}

		lastErr = err
		if errors.Is(err, websocket.ErrBadHandshake) || ctx.Err() != nil {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt+1) * c.retryDelay):
		}
	}

	return nil, fmt.Errorf("failed to connect to TTS websocket: %w", lastErr)
}

func (c *TTSClient) buildRequest(req *speechmodel.TTSRequest, speaker string) *ttsRequestBody {
	body := &ttsRequestBody{}

	body.User.UID = strings.TrimSpace(req.SessionID)
	if body.User.UID == "" {
		body.User.UID = uuid.NewString()
	}

	body.ReqParams.Speaker = speaker
	body.ReqParams.Text = req.Text
	body.ReqParams.AudioParams.Format = audioFormat(req.Format)
	body.ReqParams.AudioParams.SampleRate = 24000

	speed := firstPositive(req.Speed, c.config.TTSSpeed)
	if speed > 0 && speed != 1.0 {
		body.ReqParams.AudioParams.SpeedRatio = speed
	}
	volume := firstPositive(req.Volume, c.config.TTSVolume)
	if volume > 0 && volume != 1.0 {
		body.ReqParams.AudioParams.VolumeRatio = volume
	}

	if req.Emotion != "" {
		body.ReqParams.AudioParams.Emotion = req.Emotion
		body.ReqParams.AudioParams.EmotionScale = req.EmotionScale
	}

	body.ReqParams.Language = strings.TrimSpace(req.Language)
	if body.ReqParams.Language == "" {
		body.ReqParams.Language = strings.TrimSpace(c.config.TTSLanguage)
	}
	body.ReqParams.Additions = `{"disable_markdown_filter":false}`

	return body
}

type frameReader interface {
	ReadMessage() (int, []byte, error)
}

// collectAudio 读取服务端帧直到会话结束，拼接音频数据。
func collectAudio(conn frameReader) (*speechmodel.TTSResponse, error) {
	var (
		audio    bytes.Buffer
		reqID    string
		duration int64
	)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("failed to read TTS response: %w", err)
		}

		frame, err := DecodeFrame(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode TTS frame: %w", err)
		}

		payload, err := frame.PlainPayload()
		if err != nil {
			return nil, fmt.Errorf("failed to decompress TTS payload: %w", err)
		}

		switch frame.Header.MessageType {
		case ErrorMessage:
			return nil, fmt.Errorf("TTS error %d: %s", frame.ErrorCode, string(payload))

		case AudioOnlyServerResponse:
			audio.Write(payload)
			if !frame.IsLast() {
				continue
			}

		case FullServerResponse:
			var msg ttsServerPayload
			if len(payload) > 0 {
				if err := json.Unmarshal(payload, &msg); err != nil {
					log.Printf("[speech] failed to unmarshal TTS payload: %v", err)
				}
			}
			if !isSuccessCode(msg.Code) {
				return nil, fmt.Errorf("TTS API error %d: %s", msg.Code, msg.Message)
			}
			if msg.ReqID != "" {
				reqID = msg.ReqID
			}
			if ms, err := strconv.ParseInt(msg.Addition.Duration, 10, 64); err == nil {
				duration = ms
			}
			if msg.Data != "" {
				chunk, err := base64.StdEncoding.DecodeString(msg.Data)
				if err != nil {
					return nil, fmt.Errorf("failed to decode base64 audio chunk: %w", err)
				}
				audio.Write(chunk)
			}

			finished := frame.hasEvent() && frame.EventType == EventTypeSessionFinished
			if !finished && !frame.IsLast() && msg.Sequence >= 0 {
				continue
			}

		default:
			log.Printf("[speech] unexpected TTS frame type: %d", frame.Header.MessageType)
			continue
		}

		if audio.Len() == 0 {
			return nil, errEmptyAudio
		}
		return &speechmodel.TTSResponse{
			AudioData: audio.Bytes(),
			Duration:  duration,
			RequestID: reqID,
			CreatedAt: time.Now().UTC(),
		}, nil
	}
}

func isSuccessCode(code int) bool {
	return code == 0 || code == 3000 || code == 20000000
}

func audioFormat(format string) string {
	switch f := strings.TrimSpace(format); f {
	case "", "wav":
		return "mp3"
	default:
		return f
	}
}

func firstPositive(values ...float32) float32 {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

// resourceCandidates 根据音色推断资源 ID 的尝试顺序。
func resourceCandidates(voice string) []string {
	voice = strings.TrimSpace(voice)
	if strings.HasPrefix(voice, "S_") {
		return []string{megaResource}
	}

	normalized := strings.ToLower(voice)
	for _, hint := range []string{"bigtts", "seed", "megatts", "uranus", "venus", "jupiter", "mars"} {
		if strings.Contains(normalized, hint) {
			return []string{seedResource, defaultResource}
		}
	}
	return []string{defaultResource, seedResource}
}

// speakerCandidates 去重后返回请求音色与默认音色。
func speakerCandidates(requested, fallback string) []string {
	var out []string
	for _, s := range []string{requested, fallback} {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		dup := false
		for _, existing := range out {
			if strings.EqualFold(existing, s) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, s)
		}
	}
	return out
}

func isResourceMismatch(err error) bool {
	return err != nil && strings.Contains(err.Error(), "resource ID is mismatched with speaker related resource")
}
