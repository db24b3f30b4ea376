package photo

import "fmt"

var lensDescriptions = map[string]string{
	"wide-angle": "wide-angle lens (14-35mm) with expanded field of view and slight edge distortion",
	"standard":   "standard lens (35-70mm) with natural perspective matching human vision",
	"telephoto":  "telephoto lens (70-300mm) with compressed perspective and shallow depth of field",
	"macro":      "macro lens with extreme close-up detail and minimal depth of field",
}

var lightingDescriptions = map[string]string{
	"natural":     "natural daylight with soft shadows and balanced color temperature",
	"studio":      "professional studio lighting with controlled key, fill, and rim lights",
	"golden-hour": "golden hour lighting with warm tones and long dramatic shadows",
	"dramatic":    "dramatic high-contrast lighting with deep shadows and bright highlights",
}

const promptTemplate = `Create a professional, ultra-realistic photograph with the following exact camera specifications:

CAMERA SETTINGS:
- ISO: %s (grain and noise characteristics matching this ISO level)
- Aperture: f/%s (depth of field corresponding to this f-stop)
- Shutter Speed: 1/%ss (motion blur characteristics for this speed)

LENS & PERSPECTIVE:
- %s

LIGHTING:
- %s

SUBJECT:
%s

CRITICAL REQUIREMENTS:
- The image MUST look like it was taken with a real camera, not AI-generated
- Apply authentic camera sensor characteristics and color science
- Include natural lens aberrations, chromatic aberration where appropriate
- Realistic depth of field based on aperture setting
- Natural grain/noise pattern matching the ISO setting
- Authentic dynamic range and highlight/shadow rolloff
- Professional composition and framing
- Sharp focus on the main subject with appropriate bokeh
- Natural color grading matching professional photography

The final result should be indistinguishable from a photograph taken by a professional photographer with the specified equipment and settings.`

// BuildPrompt - 촬영 설정으로 프롬프트 생성. 모르는 lens/lighting 값은 빈 문장
func BuildPrompt(p CameraParameters) string {
	return fmt.Sprintf(promptTemplate,
		p.ISO,
		p.Aperture,
		p.ShutterSpeed,
		lensDescriptions[p.LensType],
		lightingDescriptions[p.Lighting],
		p.Subject)
}

// BuildTextPrompt - text 모델용. 참조 이미지가 있으면 안내 문장 추가
func BuildTextPrompt(prompt string, withReference bool) string {
	if !withReference {
		return prompt
	}
	return prompt + "\n\nUse this reference image as the subject and apply the specified camera settings to recreate it with professional photography quality:"
}

// ImageReference - image 모델에 넘길 참조 이미지 상태. URL 이 비어 있으면 업로드 실패
type ImageReference struct {
	URL string
}

// BuildImagePrompt - image 모델용 프롬프트
func BuildImagePrompt(prompt string, p CameraParameters, ref *ImageReference) string {
	out := "The photo: " + prompt
	if ref == nil {
		return out
	}
	if ref.URL == "" {
		return out + "\n\nUse the uploaded reference image as the subject and apply the specified camera settings, lighting, and lens characteristics to recreate it with professional photography quality."
	}
	return out + fmt.Sprintf("\n\nIMPORTANT: Use the reference image at %s as the subject. "+
		"Apply the specified camera settings (ISO %s, f/%s, 1/%ss), %s lens characteristics, and %s lighting "+
		"to recreate this subject with professional photography quality. "+
		"Match the composition and subject from the reference image while applying the new camera settings.",
		ref.URL, p.ISO, p.Aperture, p.ShutterSpeed, p.LensType, p.Lighting)
}
