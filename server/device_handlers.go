package server

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/oauthlab/oidc-sandbox/oauthmodel"
	"github.com/rs/zerolog/log"
)

// DeviceAuthorize starts a device authorization flow (RFC 8628): the
// client receives a device code to poll with and a user code for the end
// user to enter at the verification URI.
func (s *Server) DeviceAuthorize() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !hasFormContentType(r) {
			writeOAuthError(w, oauthmodel.InvalidRequest("Content-Type must be application/x-www-form-urlencoded"))
			return
		}
		if err := r.ParseForm(); err != nil {
			writeOAuthError(w, oauthmodel.InvalidRequest("failed to parse form data"))
			return
		}

		clientID := r.PostFormValue("client_id")
		if clientID == "" {
			writeOAuthError(w, oauthmodel.InvalidRequest("client_id is required"))
			return
		}
		if _, ok := s.registry.FindClient(clientID); !ok {
			writeOAuthError(w, oauthmodel.InvalidClient("unknown client"))
			return
		}

		scope := r.PostFormValue("scope")
		if scope == "" {
			scope = oauthmodel.DefaultScope
		}

		code, err := s.deviceCodes.Create(clientID, scope)
		if err != nil {
			log.Err(err).Msg("failed to create device code")
			writeOAuthError(w, oauthmodel.InvalidRequest("failed to create device code"))
			return
		}

		verificationURI := s.issuerURL(r) + RouteDeviceVerification
		resp := map[string]any{
			"device_code":               code.DeviceCode,
			"user_code":                 code.UserCode,
			"verification_uri":          verificationURI,
			"verification_uri_complete": verificationURI + "?user_code=" + url.QueryEscape(code.UserCode),
			"expires_in":                int(s.config.GetDeviceCodeExpiry().Seconds()),
			"interval":                  code.Interval,
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// DeviceVerificationPage renders the form where the user enters (or
// confirms a pre-filled) user code and approves or denies the device.
func (s *Server) DeviceVerificationPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userCode := r.URL.Query().Get("user_code")

		data := devicePageData{
			AppName:  s.config.GetAppName(),
			UserCode: userCode,
			Subjects: s.registry.Subjects(),
		}
		if userCode != "" {
			code, ok := s.deviceCodes.GetByUserCode(userCode)
			if !ok {
				s.renderDeviceResult(w, deviceResultData{
					AppName: s.config.GetAppName(),
					Title:   "Code not found",
					Message: "That code is invalid or has expired. Start over on your device.",
				})
				return
			}
			if client, ok := s.registry.FindClient(code.ClientID); ok {
				data.ClientName = client.Name
			}
			data.Scope = code.Scope
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		if err := deviceVerificationTemplate.Execute(w, data); err != nil {
			log.Err(err).Msg("failed to render device verification page")
		}
	}
}

// DeviceVerificationSubmit applies the user's approve or deny decision to
// the pending device code.
func (s *Server) DeviceVerificationSubmit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "failed to parse form data", http.StatusBadRequest)
			return
		}

		userCode := r.PostFormValue("user_code")
		action := r.PostFormValue("action")
		subjectID := r.PostFormValue("sub")

		result := deviceResultData{AppName: s.config.GetAppName()}

		switch action {
		case "approve":
			if _, ok := s.registry.FindSubject(subjectID); !ok {
				result.Title = "Unknown user"
				result.Message = "Select one of the listed users and try again."
				break
			}
			if _, ok := s.deviceCodes.Approve(userCode, subjectID); !ok {
				result.Title = "Code not found"
				result.Message = "That code is invalid, expired, or was already decided."
				break
			}
			result.Title = "Device approved"
			result.Message = "You can return to your device now. It will finish signing in shortly."
			result.Success = true
		case "deny":
			if _, ok := s.deviceCodes.Deny(userCode); !ok {
				result.Title = "Code not found"
				result.Message = "That code is invalid, expired, or was already decided."
				break
			}
			result.Title = "Device denied"
			result.Message = "The device has been told it may not sign in."
			result.Success = true
		default:
			result.Title = "Invalid action"
			result.Message = "The request did not say whether to approve or deny."
		}

		s.renderDeviceResult(w, result)
	}
}

func (s *Server) renderDeviceResult(w http.ResponseWriter, data deviceResultData) {
	w.Header().Set("Content-Type", contentTypeHTML)
	if err := deviceResultTemplate.Execute(w, data); err != nil {
		log.Err(err).Msg("failed to render device result page")
	}
}
