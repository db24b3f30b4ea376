package photo

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Setting - iso/aperture/shutterSpeed 값. JSON 문자열과 숫자 모두 허용
type Setting string

func (s *Setting) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = Setting(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("camera setting must be a string or number: %w", err)
	}
	*s = Setting(num.String())
	return nil
}

// GenerateRequest - POST /generate body
type GenerateRequest struct {
	ISO                Setting `json:"iso"`
	Aperture           Setting `json:"aperture"`
	ShutterSpeed       Setting `json:"shutterSpeed"`
	LensType           string  `json:"lensType"`
	Lighting           string  `json:"lighting"`
	SubjectDescription string  `json:"subjectDescription,omitempty"`
	UploadedImage      string  `json:"uploadedImage,omitempty"` // /upload 가 돌려준 filename
}

// CameraParameters - 검증이 끝난 촬영 설정
type CameraParameters struct {
	ISO          string
	Aperture     string
	ShutterSpeed string
	LensType     string
	Lighting     string
	Subject      string
}

// GenerationResult - 두 provider 결과를 합친 것
type GenerationResult struct {
	Prompt   string
	Analysis string
	ImageURL string
	Note     string
}

// GenerateResponse - 200 응답 body
type GenerateResponse struct {
	Success  bool   `json:"success"`
	Prompt   string `json:"prompt"`
	Analysis string `json:"analysis"`
	ImageURL string `json:"imageUrl,omitempty"`
	Message  string `json:"message"`
	Note     string `json:"note,omitempty"`
}

const (
	MessageWithImage     = "Photo generated successfully"
	MessageWithoutImage  = "Photography specifications generated successfully."
	NoteImageUnavailable = "Image generation requires REPLICATE_API_TOKEN in .env for Imagen 4."
)

// Response - 응답 envelope 으로 변환
func (r *GenerationResult) Response() GenerateResponse {
	resp := GenerateResponse{
		Success:  true,
		Prompt:   r.Prompt,
		Analysis: r.Analysis,
		ImageURL: r.ImageURL,
		Message:  MessageWithoutImage,
		Note:     r.Note,
	}
	if r.ImageURL != "" {
		resp.Message = MessageWithImage
	}
	return resp
}

// Stage - 요청 처리 단계
type Stage string

const (
	StageValidating         Stage = "validating"
	StagePromptBuilt        Stage = "prompt_built"
	StageTextCallDone       Stage = "text_call_done"
	StageImageCallAttempted Stage = "image_call_attempted"
	StageMerged             Stage = "merged"
)

// UI 에서 선택 가능한 값들
var (
	ISOValues          = []string{"100", "200", "400", "800", "1600", "3200", "6400"}
	ApertureValues     = []string{"1.4", "1.8", "2.8", "4", "5.6", "8", "11", "16", "22"}
	ShutterSpeedValues = []string{"8000", "4000", "2000", "1000", "500", "250", "125", "60", "30", "15", "8"}
	LensTypes          = []string{"wide-angle", "standard", "telephoto", "macro"}
	LightingPresets    = []string{"natural", "studio", "golden-hour", "dramatic"}
)
