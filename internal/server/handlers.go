package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tturner/blecal/internal/batch"
	"github.com/tturner/blecal/internal/meterble"
)

// errorResponse is the body of every 4xx reply that is not an Outcome
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

type decodeBody struct {
	Frame batch.Input `json:"frame"`
}

type itemContentBody struct {
	Expr string `json:"expr" binding:"required"`
}

type segmentView struct {
	meterble.Segment
	Hex string `json:"hex"`
}

type itemContentResponse struct {
	Hex      string        `json:"hex"`
	Segments []segmentView `json:"segments"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleCommands(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"commands": meterble.Commands(),
		"pulses":   meterble.PulseNames(),
		"modes":    meterble.ModeNames(),
		"bauds":    meterble.BaudRates(),
	})
}

func (s *Server) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.sink.GetSummary())
}

// handleDispatch accepts a full batch envelope.
func (s *Server) handleDispatch(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	req, err := batch.Parse(data, batch.FormatJSON)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	s.writeOutcome(c, s.dispatcher.Dispatch(req))
}

func (s *Server) handleEncode(c *gin.Context) {
	var item meterble.EncodeRequest
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	s.writeOutcome(c, s.dispatcher.Dispatch(batch.NewEncodeRequest(item)))
}

func (s *Server) handleDecode(c *gin.Context) {
	var body decodeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	s.writeOutcome(c, s.dispatcher.Dispatch(batch.NewDecodeRequest(body.Frame)))
}

func (s *Server) handleItemContent(c *gin.Context) {
	var body itemContentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	segments, err := meterble.ItemSegments(body.Expr)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Kind: meterble.KindOf(err).String()})
		return
	}
	resp := itemContentResponse{Segments: make([]segmentView, 0, len(segments))}
	var packed []byte
	for _, seg := range segments {
		packed = append(packed, seg.Bytes...)
		resp.Segments = append(resp.Segments, segmentView{Segment: seg, Hex: meterble.EncodeHex(seg.Bytes)})
	}
	resp.Hex = meterble.EncodeHex(packed)
	c.JSON(http.StatusOK, resp)
}

func (s *Server) writeOutcome(c *gin.Context, out batch.Outcome) {
	if out.Err != nil {
		c.JSON(http.StatusUnprocessableEntity, out)
		return
	}
	c.JSON(http.StatusOK, out)
}
