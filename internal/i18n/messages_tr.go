package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.Turkish

	message.SetString(lang, KeySignUp, "Kayıt Ol")
	message.SetString(lang, KeyUsername, "Kullanıcı Adı")
	message.SetString(lang, KeyEmail, "E-posta")
	message.SetString(lang, KeyPassword, "Şifre")
	message.SetString(lang, KeyRepeatPassword, "Şifre Tekrarı")
	message.SetString(lang, KeySignUpButton, "Kayıt Ol")
	message.SetString(lang, KeyPasswordMismatch, "Şifreler eşleşmiyor")
	message.SetString(lang, KeyAccountActivationNotification, "Hesabınızı etkinleştirmek için e-postanızı kontrol edin")
	message.SetString(lang, KeySubmitFailed, "Bir hata oluştu. Lütfen tekrar deneyin.")
	message.SetString(lang, KeyLanguage, "Dil")
}
