// Package hankey rewrites CJK text embedded in JavaScript, TypeScript, JSX and
// single-file UI components into translation-lookup calls.
//
// Each detected literal is replaced by a call such as i18n.t('I18N_0') and
// collected into a LanguageObject mapping language codes to key/value
// messages. Companion packages batch outstanding messages through a
// translation backend (schedule) and collapse keys sharing one value (dedupe).
//
// Basic usage:
//
//	import (
//	    "github.com/ZaguanLabs/hankey"
//	    "github.com/ZaguanLabs/hankey/component"
//	    "github.com/ZaguanLabs/hankey/script"
//	)
//
//	func main() {
//	    e := hankey.NewEngine(
//	        hankey.WithTransformer(script.NewTransformer()),
//	        hankey.WithTransformer(component.NewTransformer()),
//	    )
//
//	    res, err := e.Transform(ctx, "src/App.js", src, hankey.Options{
//	        DefaultLang: "zh",
//	        Languages:   []string{"zh", "en"},
//	        KeyPrefix:   "I18N_",
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(res.Content) // const a = i18n.t('I18N_0');
//	}
package hankey
