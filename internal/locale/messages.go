package locale

import "fmt"

// Messages is the user-facing text catalog for one language.
type Messages struct {
	Idle                      string
	Recording                 string
	Transcribing              string
	ReadyToSend               string
	Answered                  string
	MalformedAnswer           string
	ApplicationError          string
	Unreachable               string
	NoSpeech                  string
	NoSpeechShort             string
	FinishedWithoutTranscript string
	CaptureUnavailable        string
	PermissionDenied          string
	DeviceUnavailable         string
	QueryEmpty                string
	Cancelled                 string
	CannotCancelLoading       string

	sending          string
	recognitionError string
}

// Sending describes an in-flight submission of query.
func (m Messages) Sending(query string) string {
	return fmt.Sprintf(m.sending, query)
}

// RecognitionError describes a failed transcription of the given kind.
func (m Messages) RecognitionError(kind string) string {
	return fmt.Sprintf(m.recognitionError, kind)
}

// For returns the catalog for tag, defaulting to English.
func For(tag Tag) Messages {
	if tag == Spanish {
		return spanish
	}
	return english
}

var english = Messages{
	Idle:                      "Ready to record...",
	Recording:                 "Recording... run stop when you are done.",
	Transcribing:              "Processing transcript...",
	ReadyToSend:               "Review, edit and send.",
	Answered:                  "Answer received.",
	MalformedAnswer:           "The service returned an unexpected answer format.",
	ApplicationError:          "The service reported an error.",
	Unreachable:               "Could not reach the answering service. Make sure the tunnel is up and the URL is correct.",
	NoSpeech:                  "No speech detected. Ready to record...",
	NoSpeechShort:             "No speech detected or the recording was too short.",
	FinishedWithoutTranscript: "Processing finished without a transcript.",
	CaptureUnavailable:        "Error: speech capture is not available.",
	PermissionDenied:          "Error: could not access the microphone. Check permissions.",
	DeviceUnavailable:         "Error: no usable microphone was found.",
	QueryEmpty:                "The query is empty. Record or type something.",
	Cancelled:                 "Recording/processing cancelled.",
	CannotCancelLoading:       "Cannot cancel while loading; use reset.",

	sending:          "Sending: %q...",
	recognitionError: "Speech recognition error: %s. Try again.",
}

var spanish = Messages{
	Idle:                      "Listo para grabar...",
	Recording:                 "Grabando... Ejecuta stop para DETENER.",
	Transcribing:              "Procesando transcripción...",
	ReadyToSend:               "Revisa, edita y presiona ENVIAR.",
	Answered:                  "Respuesta RAG recibida.",
	MalformedAnswer:           "La API devolvió un formato de respuesta inesperado.",
	ApplicationError:          "La API reportó un error.",
	Unreachable:               "Hubo un error al comunicarse con la API. Asegúrate de que el túnel de Cloudflare esté activo y la URL sea correcta.",
	NoSpeech:                  "No se detectó voz. Listo para grabar...",
	NoSpeechShort:             "No se detectó voz o la grabación fue muy corta.",
	FinishedWithoutTranscript: "Procesamiento finalizado sin transcripción.",
	CaptureUnavailable:        "Error: la captura de voz no está disponible.",
	PermissionDenied:          "Error: No se pudo acceder al micrófono. Verifica permisos.",
	DeviceUnavailable:         "Error: No se encontró un micrófono disponible.",
	QueryEmpty:                "La consulta está vacía. Graba o escribe algo.",
	Cancelled:                 "Grabación/Procesamiento cancelado.",
	CannotCancelLoading:       "No se puede cancelar mientras se envía; usa reset.",

	sending:          "Enviando: %q a la API RAG...",
	recognitionError: "Error STT: %s. Intenta de nuevo.",
}
