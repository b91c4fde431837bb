package controllers

import (
	apperrors "github.com/boozebuddy/backend/common/errors"
	"github.com/boozebuddy/backend/models"

	"github.com/gin-gonic/gin"
)

type QRCodeController struct {
	retriever RetrievalAPI
	users     UserLookup
	cache     *CacheManager
	validator *RequestValidator
}

func NewQRCodeController(retriever RetrievalAPI, users UserLookup, cache *CacheManager) *QRCodeController {
	return &QRCodeController{retriever: retriever, users: users, cache: cache, validator: NewRequestValidator()}
}

// ListStoreQRCodes lists the codes distributed to :storeSlug. Store managers
// may only list their own store.
func (qc *QRCodeController) ListStoreQRCodes(c *gin.Context) {
	storeID, err := qc.validator.ParseStoreSlugParam(c, "storeSlug")
	if err != nil {
		badRequest(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	user := currentUser(c, ctx, qc.users)
	if user == nil {
		return
	}
	if user.Role == models.RoleStoreManager {
		if own, ok := storeOf(user); !ok || own != storeID {
			apperrors.Abort(c, apperrors.ErrForbidden.WithMessage("not your store"))
			return
		}
	}

	if codes, hit := qc.cache.GetQRCodes(ctx, storeID); hit {
		c.Header("X-Cache", "HIT")
		ok(c, gin.H{"storeId": storeID, "qrCodes": codes})
		return
	}

	codes, err := qc.retriever.ListDistributed(ctx, storeID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	qc.cache.SetQRCodesAsync(storeID, codes)
	c.Header("X-Cache", "MISS")
	ok(c, gin.H{"storeId": storeID, "qrCodes": codes})
}
