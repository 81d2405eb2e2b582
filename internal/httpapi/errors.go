package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwc684/ptmaster-sub001/internal/account"
	"github.com/jwc684/ptmaster-sub001/internal/auth"
	"github.com/jwc684/ptmaster-sub001/internal/impersonation"
	"github.com/jwc684/ptmaster-sub001/internal/invite"
	"github.com/jwc684/ptmaster-sub001/internal/payment"
	"github.com/jwc684/ptmaster-sub001/internal/reporting"
	"github.com/jwc684/ptmaster-sub001/internal/schedule"
	"github.com/jwc684/ptmaster-sub001/internal/shop"
	"github.com/jwc684/ptmaster-sub001/internal/tenancy"
	"github.com/jwc684/ptmaster-sub001/pkg/logger"
	"github.com/jwc684/ptmaster-sub001/pkg/utils"
)

type errorMapping struct {
	err     error
	status  int
	code    string
	message string
}

// errorTable translates domain sentinels into the JSON envelope. Order matters
// only where one error wraps another.
var errorTable = []errorMapping{
	{auth.ErrUnauthenticated, http.StatusUnauthorized, utils.CodeUnauthenticated, "authentication required"},
	{auth.ErrSessionInvalidated, http.StatusUnauthorized, utils.CodeUnauthenticated, "authentication required"},
	{account.ErrInvalidCredentials, http.StatusUnauthorized, utils.CodeUnauthenticated, "invalid email or password"},
	{auth.ErrForbidden, http.StatusForbidden, utils.CodeForbidden, "forbidden"},
	{auth.ErrInvalidGrant, http.StatusForbidden, utils.CodeForbidden, "invalid impersonation grant"},
	{impersonation.ErrPlatformTarget, http.StatusForbidden, utils.CodeForbidden, "platform accounts cannot be impersonated"},
	{schedule.ErrNotAssigned, http.StatusForbidden, utils.CodeForbidden, "member is not assigned to you"},
	{tenancy.ErrShopRequired, http.StatusForbidden, utils.CodeShopRequired, "select a shop first"},
	{account.ErrRateLimited, http.StatusTooManyRequests, utils.CodeRateLimited, "too many login attempts"},

	{tenancy.ErrShopNotFound, http.StatusNotFound, utils.CodeNotFound, "shop not found"},
	{shop.ErrNotFound, http.StatusNotFound, utils.CodeNotFound, "shop not found"},
	{account.ErrNotFound, http.StatusNotFound, utils.CodeNotFound, "account not found"},
	{payment.ErrMemberNotFound, http.StatusNotFound, utils.CodeNotFound, "member not found"},
	{impersonation.ErrTargetNotFound, http.StatusNotFound, utils.CodeNotFound, "impersonation target not found"},
	{invite.ErrNotFound, http.StatusNotFound, utils.CodeNotFound, "invite not found"},
	{schedule.ErrNotFound, http.StatusNotFound, utils.CodeNotFound, "schedule not found"},

	{account.ErrEmailTaken, http.StatusConflict, utils.CodeConflict, "email already registered"},
	{account.ErrShopAlreadySet, http.StatusConflict, utils.CodeConflict, "shop already selected"},
	{account.ErrNoSessionsLeft, http.StatusConflict, utils.CodeConflict, "no remaining sessions"},
	{shop.ErrSlugTaken, http.StatusConflict, utils.CodeConflict, "slug already taken"},
	{invite.ErrUsed, http.StatusConflict, utils.CodeConflict, "invite already used"},
	{invite.ErrExpired, http.StatusConflict, utils.CodeConflict, "invite expired"},
	{invite.ErrConflict, http.StatusConflict, utils.CodeConflict, "email belongs to another account"},
	{schedule.ErrAlreadyAttended, http.StatusConflict, utils.CodeConflict, "already attended"},

	{account.ErrInvalidArgument, http.StatusBadRequest, utils.CodeInvalidArgument, "invalid request"},
	{account.ErrShopUnavailable, http.StatusBadRequest, utils.CodeInvalidArgument, "shop not available"},
	{shop.ErrInvalidArgument, http.StatusBadRequest, utils.CodeInvalidArgument, "invalid request"},
	{invite.ErrInvalidArgument, http.StatusBadRequest, utils.CodeInvalidArgument, "invalid request"},
	{payment.ErrInvalidArgument, http.StatusBadRequest, utils.CodeInvalidArgument, "invalid request"},
	{schedule.ErrInvalidArgument, http.StatusBadRequest, utils.CodeInvalidArgument, "invalid request"},
	{impersonation.ErrInvalidArgument, http.StatusBadRequest, utils.CodeInvalidArgument, "invalid request"},
	{impersonation.ErrNotImpersonating, http.StatusBadRequest, utils.CodeInvalidArgument, "not impersonating"},
	{reporting.ErrInvalidRequest, http.StatusBadRequest, utils.CodeInvalidArgument, "invalid range"},
}

// writeError maps err onto the envelope. Unknown errors are logged and
// reported as internal without detail.
func writeError(c *gin.Context, err error) {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			utils.AbortError(c, m.status, m.code, m.message)
			return
		}
	}
	logger.FromGin(c).Error("request failed", "err", err)
	utils.AbortError(c, http.StatusInternalServerError, utils.CodeInternal, "internal error")
}

func badRequest(c *gin.Context, message string) {
	utils.AbortError(c, http.StatusBadRequest, utils.CodeInvalidArgument, message)
}
