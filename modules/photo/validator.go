package photo

import (
	"slices"
	"strings"

	"ai-lens-server/modules/common/apperr"
	"ai-lens-server/modules/common/fallback"
)

// Validate - 필수 값 확인 후 CameraParameters 생성
func Validate(req GenerateRequest) (CameraParameters, error) {
	params := CameraParameters{
		ISO:          strings.TrimSpace(string(req.ISO)),
		Aperture:     strings.TrimSpace(string(req.Aperture)),
		ShutterSpeed: strings.TrimSpace(string(req.ShutterSpeed)),
		LensType:     strings.TrimSpace(req.LensType),
		Lighting:     strings.TrimSpace(req.Lighting),
		Subject:      fallback.SafeString(req.SubjectDescription, fallback.DefaultSubject), // 공백만 있으면 기본값
	}

	fields := []struct {
		name    string
		value   string
		allowed []string
	}{
		{"iso", params.ISO, ISOValues},
		{"aperture", params.Aperture, ApertureValues},
		{"shutterSpeed", params.ShutterSpeed, ShutterSpeedValues},
		{"lensType", params.LensType, LensTypes},
		{"lighting", params.Lighting, LightingPresets},
	}

	verr := &apperr.ValidationError{}
	for _, f := range fields {
		switch {
		case f.value == "":
			verr.Missing = append(verr.Missing, f.name)
		case !slices.Contains(f.allowed, f.value):
			verr.Invalid = append(verr.Invalid, f.name)
		}
	}
	if len(verr.Missing) > 0 || len(verr.Invalid) > 0 {
		return CameraParameters{}, verr
	}
	return params, nil
}
