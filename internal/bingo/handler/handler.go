package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prospectbingo/bingo/backend/go-services/internal/bingo"
	"github.com/prospectbingo/bingo/backend/go-services/internal/bingo/service"
)

// MaxBodyBytes caps request bodies; a card envelope is well under 4KB.
const MaxBodyBytes = 64 << 10

// RegisterResourceRoutes mounts list/create/get/replace/delete for one
// resource kind under path.
func RegisterResourceRoutes[P bingo.Payload](rg gin.IRouter, path string, svc *service.Service[P]) {
	g := rg.Group(path)

	g.GET("", func(c *gin.Context) {
		list, err := svc.List(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	g.POST("", func(c *gin.Context) {
		r, ok := bindResource[P](c)
		if !ok {
			return
		}
		u, isUnsaved := r.(bingo.Unsaved[P])
		if !isUnsaved {
			c.JSON(http.StatusBadRequest, gin.H{"error": "_id is assigned by the store; use PUT to update"})
			return
		}
		saved, err := svc.Save(c.Request.Context(), u)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, saved)
	})

	g.GET("/:id", func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		saved, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, saved)
	})

	g.PUT("/:id", func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		r, ok := bindResource[P](c)
		if !ok {
			return
		}
		if s, isSaved := r.(bingo.Saved[P]); isSaved && s.ID != id {
			c.JSON(http.StatusBadRequest, gin.H{"error": "_id does not match path"})
			return
		}
		saved, err := svc.Save(c.Request.Context(), bingo.Saved[P]{ID: id, Data: r.Payload()})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, saved)
	})

	g.DELETE("/:id", func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if err := svc.Delete(c.Request.Context(), id); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
}

// RegisterCardRoutes mounts the generic routes for cards plus square marking
// and card generation.
func RegisterCardRoutes(rg gin.IRouter, path string, svc *service.CardService) {
	g := rg.Group(path)

	g.POST("/generate", func(c *gin.Context) {
		var req struct {
			ProspectName string `json:"prospectName" binding:"required"`
		}
		limitBody(c)
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBindError(c, "invalid request", err)
			return
		}
		saved, err := svc.Generate(c.Request.Context(), req.ProspectName)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, saved)
	})

	g.PATCH("/:id/squares/:row/:col", func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		row, rerr := strconv.Atoi(c.Param("row"))
		col, cerr := strconv.Atoi(c.Param("col"))
		if rerr != nil || cerr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "row and col must be integers"})
			return
		}
		var req struct {
			Checked *bool `json:"checked" binding:"required"`
		}
		limitBody(c)
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBindError(c, "invalid request", err)
			return
		}
		saved, err := svc.MarkSquare(c.Request.Context(), id, row, col, *req.Checked)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, saved)
	})

	RegisterResourceRoutes(rg, path, svc.Service)
}

func limitBody(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)
}

func writeBindError(c *gin.Context, msg string, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "details": err.Error()})
}

func bindResource[P bingo.Payload](c *gin.Context) (bingo.Resource[P], bool) {
	limitBody(c)
	body, err := c.GetRawData()
	if err != nil {
		writeBindError(c, "cannot read body", err)
		return nil, false
	}
	r, err := bingo.DecodeResource[P](body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid resource", "details": err.Error()})
		return nil, false
	}
	return r, true
}

func pathID(c *gin.Context) (bingo.ObjectID, bool) {
	id, err := bingo.ParseObjectID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id", "details": err.Error()})
		return bingo.NilObjectID, false
	}
	return id, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict", "details": err.Error()})
	case errors.Is(err, bingo.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid resource", "details": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
