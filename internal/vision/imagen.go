package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/structpb"

	"autocamper/internal/apperr"
)

// VertexImagenConfig describes how to connect to Imagen on Vertex AI.
type VertexImagenConfig struct {
	ProjectID       string
	Location        string
	EditModel       string
	UpscaleModel    string
	CredentialsFile string
}

// VertexImagen implements Editor and Upscaler via the Vertex AI prediction API.
type VertexImagen struct {
	projectID       string
	location        string
	editModel       string
	upscaleModel    string
	credentialsFile string
}

// NewVertexImagen wires a VertexImagen client.
func NewVertexImagen(cfg VertexImagenConfig) *VertexImagen {
	return &VertexImagen{
		projectID:       strings.TrimSpace(cfg.ProjectID),
		location:        strings.TrimSpace(cfg.Location),
		editModel:       strings.TrimSpace(cfg.EditModel),
		upscaleModel:    strings.TrimSpace(cfg.UpscaleModel),
		credentialsFile: strings.TrimSpace(cfg.CredentialsFile),
	}
}

// Edit runs a mask-free Imagen edit describing the replacement in the prompt.
func (v *VertexImagen) Edit(ctx context.Context, image []byte, replace, search string) (EditResult, error) {
	prompt := fmt.Sprintf("replace %s with %s", strings.TrimSpace(search), strings.TrimSpace(replace))
	instance := map[string]any{
		"prompt": prompt,
		"image":  map[string]any{"bytesBase64Encoded": base64.StdEncoding.EncodeToString(image)},
	}
	params := map[string]any{"sampleCount": 1}

	data, err := v.predict(ctx, v.editModel, instance, params)
	if err != nil {
		return EditResult{}, fmt.Errorf("imagen: edit %q: %w", search, err)
	}
	return EditResult{Image: data, FinishReason: "SUCCESS"}, nil
}

// Upscale doubles the resolution of image.
func (v *VertexImagen) Upscale(ctx context.Context, image []byte) ([]byte, error) {
	instance := map[string]any{
		"prompt": "",
		"image":  map[string]any{"bytesBase64Encoded": base64.StdEncoding.EncodeToString(image)},
	}
	params := map[string]any{
		"sampleCount":   1,
		"mode":          "upscale",
		"upscaleConfig": map[string]any{"upscaleFactor": "x2"},
	}

	data, err := v.predict(ctx, v.upscaleModel, instance, params)
	if err != nil {
		return nil, fmt.Errorf("imagen: upscale: %w", err)
	}
	return data, nil
}

func (v *VertexImagen) predict(ctx context.Context, model string, instance, params map[string]any) ([]byte, error) {
	if v == nil || v.projectID == "" || v.location == "" || model == "" {
		return nil, fmt.Errorf("missing project/location/model")
	}

	instanceValue, err := structpb.NewValue(instance)
	if err != nil {
		return nil, err
	}
	paramsValue, err := structpb.NewValue(params)
	if err != nil {
		return nil, err
	}

	options := []option.ClientOption{option.WithEndpoint(fmt.Sprintf("%s-aiplatform.googleapis.com:443", v.location))}
	if v.credentialsFile != "" {
		options = append(options, option.WithCredentialsFile(v.credentialsFile))
	}

	client, err := aiplatform.NewPredictionClient(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("prediction client: %w", err)
	}
	defer client.Close()

	resp, err := client.Predict(ctx, &aiplatformpb.PredictRequest{
		Endpoint:   fmt.Sprintf("projects/%s/locations/%s/publishers/google/models/%s", v.projectID, v.location, model),
		Instances:  []*structpb.Value{instanceValue},
		Parameters: paramsValue,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: predict: %v", apperr.ErrUpstream, err)
	}
	return predictionImage(resp.GetPredictions())
}

// predictionImage extracts the first image. Imagen drops filtered samples and
// reports raiFilteredReason instead of bytes.
func predictionImage(predictions []*structpb.Value) ([]byte, error) {
	for _, p := range predictions {
		fields := p.GetStructValue().GetFields()
		if encoded := fields["bytesBase64Encoded"].GetStringValue(); encoded != "" {
			data, err := base64.StdEncoding.DecodeString(encoded)
			if err != nil {
				return nil, fmt.Errorf("decode result: %w", err)
			}
			return data, nil
		}
		if reason := fields["raiFilteredReason"].GetStringValue(); reason != "" {
			return nil, fmt.Errorf("%w: %s", apperr.ErrContentFiltered, reason)
		}
	}
	if len(predictions) == 0 {
		return nil, fmt.Errorf("%w: empty prediction response", apperr.ErrContentFiltered)
	}
	return nil, fmt.Errorf("prediction missing bytes")
}
