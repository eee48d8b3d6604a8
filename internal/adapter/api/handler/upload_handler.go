package handler

import (
	"fmt"
	"io"

	"github.com/labstack/echo/v4"

	"sellnext/internal/usecase"
	"sellnext/pkg/errors"
	"sellnext/pkg/logger"
	"sellnext/pkg/response"
)

type UploadHandler struct {
	uploadUseCase *usecase.UploadUseCase
}

func NewUploadHandler(uploadUseCase *usecase.UploadUseCase) *UploadHandler {
	return &UploadHandler{
		uploadUseCase: uploadUseCase,
	}
}

func (h *UploadHandler) UploadImage(c echo.Context) error {
	file, err := c.FormFile("image")
	if err != nil {
		return response.Error(c, errors.BadRequest("Missing or invalid image file", err))
	}

	if file.Size > usecase.MaxImageSize {
		logger.Warn("Image too large: %d bytes", file.Size)
		return response.Error(c, errors.BadRequest(fmt.Sprintf("Image must be %dMB or smaller", usecase.MaxImageSize>>20), nil))
	}

	src, err := file.Open()
	if err != nil {
		return response.Error(c, errors.Internal("Unable to read file", err))
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, usecase.MaxImageSize+1))
	if err != nil {
		return response.Error(c, errors.Internal("Unable to read file", err))
	}

	url, err := h.uploadUseCase.UploadImage(c.Request().Context(), currentUserID(c), data)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, "Image uploaded successfully", map[string]string{"url": url})
}
