package helpers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestErrorTypes(t *testing.T) {
	Convey("Given the simulation error types", t, func() {
		Convey("APIError exposes the server text as the user message", func() {
			err := fmt.Errorf("stage: %w", NewAPIError("ir-a-cajero", 200, "Comprador no encontrado"))
			So(UserMessage(err), ShouldEqual, "Comprador no encontrado")

			var apiErr *APIError
			So(errors.As(err, &apiErr), ShouldBeTrue)
			So(apiErr.Endpoint, ShouldEqual, "ir-a-cajero")
		})

		Convey("TransportError keeps its cause and status", func() {
			cause := errors.New("connection refused")
			err := NewTransportError("crear", 0, cause)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "connection refused")

			err = NewTransportError("crear", http.StatusInternalServerError, nil)
			So(err.Error(), ShouldContainSubstring, "HTTP 500")
		})

		Convey("HTTPStatus classifies errors for the viewer API", func() {
			h := NewErrorHandler(nil)
			So(h.HTTPStatus(nil), ShouldEqual, http.StatusOK)
			So(h.HTTPStatus(NewValidationError("budget", "bad")), ShouldEqual, http.StatusBadRequest)
			So(h.HTTPStatus(ErrSessionBusy), ShouldEqual, http.StatusConflict)
			So(h.HTTPStatus(fmt.Errorf("x: %w", ErrSessionNotFound)), ShouldEqual, http.StatusNotFound)
			So(h.HTTPStatus(NewAPIError("crear", 200, "nope")), ShouldEqual, http.StatusBadGateway)
			So(h.HTTPStatus(errors.New("other")), ShouldEqual, http.StatusInternalServerError)
		})

		Convey("Handle counts only unexpected errors", func() {
			h := NewErrorHandler(nil)
			h.Handle(NewValidationError("budget", "bad"), "budget")
			h.Handle(ErrInvalidTransition, "list")
			So(h.ErrorCount, ShouldEqual, 0)
			h.Handle(errors.New("boom"), "checkout")
			So(h.ErrorCount, ShouldEqual, 1)
		})
	})
}
