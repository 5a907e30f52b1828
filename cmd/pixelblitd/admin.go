package main

import (
	"context"
	"fmt"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/jvanderberg/pixelblit"
	"libdb.so/hrt"
)

type adminHandler struct {
	*chi.Mux
	controller *pixelblit.Controller
	server     *pixelblit.Server
}

func newAdminHandler(controller *pixelblit.Controller, server *pixelblit.Server, reqLogger *httplog.Logger) *adminHandler {
	h := &adminHandler{
		Mux:        chi.NewRouter(),
		controller: controller,
		server:     server,
	}

	h.Use(httplog.RequestLogger(reqLogger))
	h.Use(hrt.Use(hrt.Opts{
		Encoder: hrt.CombinedEncoder{
			Encoder: hrt.JSONEncoder,
			Decoder: hrt.URLDecoder,
		},
		ErrorWriter: hrt.TextErrorWriter,
	}))

	h.Get("/status", hrt.Wrap(h.status))
	h.Get("/sequences", hrt.Wrap(h.sequences))
	h.Post("/play", hrt.Wrap(h.play))
	h.Post("/rainbow", hrt.Wrap(h.rainbow))
	h.Post("/rainbow/next", hrt.Wrap(h.nextString))
	h.Post("/stop", hrt.Wrap(h.stop))
	h.Patch("/brightness", hrt.Wrap(h.patchBrightness))
	h.Post("/kick-all", hrt.Wrap(h.kickAll))

	return h
}

type statusResponse struct {
	pixelblit.Status
	PreviewSessions int `json:"preview_sessions"`
}

func (h *adminHandler) status(ctx context.Context, _ hrt.None) (statusResponse, error) {
	return statusResponse{
		Status:          h.controller.Status(),
		PreviewSessions: h.server.Sessions(),
	}, nil
}

func (h *adminHandler) sequences(ctx context.Context, _ hrt.None) ([]string, error) {
	return h.controller.Sequences()
}

type playRequest struct {
	File string `query:"file"`
}

func (h *adminHandler) play(ctx context.Context, req playRequest) (hrt.None, error) {
	return hrt.Empty, h.controller.PlaySequence(req.File)
}

func (h *adminHandler) rainbow(ctx context.Context, _ hrt.None) (hrt.None, error) {
	return hrt.Empty, h.controller.PlayRainbow()
}

type nextStringResponse struct {
	String int `json:"string"`
}

func (h *adminHandler) nextString(ctx context.Context, _ hrt.None) (nextStringResponse, error) {
	str, err := h.controller.NextString()
	return nextStringResponse{String: str}, err
}

func (h *adminHandler) stop(ctx context.Context, _ hrt.None) (hrt.None, error) {
	h.controller.Stop()
	return hrt.Empty, nil
}

type patchBrightnessRequest struct {
	Value int `query:"value"`
}

func (h *adminHandler) patchBrightness(ctx context.Context, req patchBrightnessRequest) (hrt.None, error) {
	if req.Value < 0 || req.Value > 255 {
		return hrt.Empty, fmt.Errorf("brightness %d out of range [0, 255]", req.Value)
	}
	h.controller.SetBrightness(uint8(req.Value))
	return hrt.Empty, nil
}

type kickAllRequest struct {
	Reason string `query:"reason"`
}

func (h *adminHandler) kickAll(ctx context.Context, req kickAllRequest) (hrt.None, error) {
	h.server.KickAllConnections(req.Reason)
	return hrt.Empty, nil
}
