package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, KeySignUp, "Sign Up")
	message.SetString(lang, KeyUsername, "Username")
	message.SetString(lang, KeyEmail, "Email")
	message.SetString(lang, KeyPassword, "Password")
	message.SetString(lang, KeyRepeatPassword, "Password Repeat")
	message.SetString(lang, KeySignUpButton, "Sign Up")
	message.SetString(lang, KeyPasswordMismatch, "Password mismatch")
	message.SetString(lang, KeyAccountActivationNotification, "Please check your email to activate your account")
	message.SetString(lang, KeySubmitFailed, "Something went wrong. Please try again.")
	message.SetString(lang, KeyLanguage, "Language")
}
