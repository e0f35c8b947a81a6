package checkout

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
	"github.com/pixpage/pixpage/internal/infrastructure/security"
)

// FormSlot is the customer data form shown before a payment exists.
type FormSlot struct {
	Action       string
	ProductName  string
	AmountCents  int64
	RequirePhone bool
	Values       checkout.Customer
	Errors       checkout.FieldErrors
	Message      string
}

func (s FormSlot) Content() (template.HTML, error) {
	errs := s.Errors
	if errs == nil {
		errs = checkout.FieldErrors{}
	}
	return executeSlot("form", map[string]any{
		"Action":       s.Action,
		"ProductName":  s.ProductName,
		"Amount":       checkout.FormatBRL(s.AmountCents),
		"RequirePhone": s.RequirePhone,
		"Values":       s.Values,
		"Errors":       errs,
		"Message":      s.Message,
	})
}

// PaymentSlot shows the PIX QR code and copy-paste code of a pending payment
// and keeps the page in sync with the payment status.
type PaymentSlot struct {
	PaymentID    string
	PixCode      string
	QRCodeImage  string
	AmountCents  int64
	Status       checkout.PaymentStatus
	SecondsLeft  int
	StatusURL    string
	StreamURL    string
	PollInterval time.Duration
}

func (s PaymentSlot) Content() (template.HTML, error) {
	poll := s.PollInterval
	if poll <= 0 {
		poll = 5 * time.Second
	}
	var qr template.URL
	if s.QRCodeImage != "" {
		qr = imageSource(s.QRCodeImage, "")
	}
	return executeSlot("payment", map[string]any{
		"PaymentID":   s.PaymentID,
		"PixCode":     s.PixCode,
		"QRCode":      qr,
		"Amount":      checkout.FormatBRL(s.AmountCents),
		"Status":      string(s.Status),
		"SecondsLeft": s.SecondsLeft,
		"StatusURL":   s.StatusURL,
		"StreamURL":   s.StreamURL,
		"PollMillis":  poll.Milliseconds(),
	})
}

// PreviewSlot stands in for the form inside the editor preview.
type PreviewSlot struct {
	ProductName string
	AmountCents int64
}

func (s PreviewSlot) Content() (template.HTML, error) {
	return executeSlot("preview", map[string]any{
		"ProductName": s.ProductName,
		"Amount":      checkout.FormatBRL(s.AmountCents),
	})
}

// StatusSlot is the final view of a payment that left the pending state.
type StatusSlot struct {
	Status         checkout.PaymentStatus
	ProductName    string
	AmountCents    int64
	PaidAt         *time.Time
	SuccessMessage string
	RetryURL       string
}

func (s StatusSlot) Content() (template.HTML, error) {
	paidAt := ""
	if s.PaidAt != nil {
		paidAt = s.PaidAt.In(saoPaulo()).Format("02/01/2006 15:04")
	}
	return executeSlot("status", map[string]any{
		"Paid":           s.Status == checkout.StatusPaid,
		"Expired":        s.Status == checkout.StatusExpired,
		"ProductName":    s.ProductName,
		"Amount":         checkout.FormatBRL(s.AmountCents),
		"PaidAt":         paidAt,
		"SuccessMessage": template.HTML(security.RichText(s.SuccessMessage)),
		"RetryURL":       s.RetryURL,
	})
}

func executeSlot(name string, data map[string]any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := slotTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to execute %s slot: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

func saoPaulo() *time.Location {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		return time.FixedZone("BRT", -3*60*60)
	}
	return loc
}

var slotTemplates = template.Must(template.New("slots").Parse(
	`{{define "form"}}<div class="pp-card">
<p class="pp-muted">{{.ProductName}}</p>
<p class="pp-amount">{{.Amount}}</p>
{{with .Message}}<p class="pp-field"><small>{{.}}</small></p>{{end}}
<form method="post" action="{{.Action}}" id="pp-form">
<label class="pp-field"><span>Nome completo</span><input name="name" type="text" value="{{.Values.Name}}" autocomplete="name" required>{{with index .Errors "name"}}<small>{{.}}</small>{{end}}</label>
<label class="pp-field"><span>E-mail</span><input name="email" type="email" value="{{.Values.Email}}" autocomplete="email" required>{{with index .Errors "email"}}<small>{{.}}</small>{{end}}</label>
<label class="pp-field"><span>CPF</span><input name="taxId" type="text" inputmode="numeric" value="{{.Values.TaxID}}" required>{{with index .Errors "taxId"}}<small>{{.}}</small>{{end}}</label>
<label class="pp-field"><span>Telefone</span><input name="phone" type="tel" value="{{.Values.Phone}}" autocomplete="tel"{{if .RequirePhone}} required{{end}}>{{with index .Errors "phone"}}<small>{{.}}</small>{{end}}</label>
<button class="pp-button" type="submit">Gerar PIX</button>
</form>
<script>
(function () {
  var form = document.getElementById("pp-form");
  var busy = false;
  form.addEventListener("submit", function (e) {
    if (busy) { e.preventDefault(); return; }
    busy = true;
    form.querySelector("button").disabled = true;
  });
})();
</script>
</div>{{end}}` +

		`{{define "payment"}}<div class="pp-card" id="pp-payment" data-payment-id="{{.PaymentID}}">
<p class="pp-amount">{{.Amount}}</p>
{{if .QRCode}}<img class="pp-qr" src="{{.QRCode}}" alt="QR Code PIX">{{end}}
<p class="pp-muted">Copie o código abaixo e pague no app do seu banco:</p>
<textarea class="pp-code" id="pp-code" rows="4" readonly>{{.PixCode}}</textarea>
<button class="pp-button" type="button" id="pp-copy">Copiar código PIX</button>
<p class="pp-muted">Status: <strong id="pp-status">{{.Status}}</strong> · expira em <span id="pp-countdown"></span></p>
<script>
(function () {
  var cfg = {status: {{.StatusURL}}, stream: {{.StreamURL}}, seconds: {{.SecondsLeft}}, poll: {{.PollMillis}}};
  var done = false;
  var statusEl = document.getElementById("pp-status");
  var countdownEl = document.getElementById("pp-countdown");

  document.getElementById("pp-copy").addEventListener("click", function () {
    var code = document.getElementById("pp-code");
    code.select();
    if (navigator.clipboard) { navigator.clipboard.writeText(code.value); } else { document.execCommand("copy"); }
    this.textContent = "Código copiado!";
  });

  function apply(update) {
    if (!update || !update.status || done) { return; }
    statusEl.textContent = update.status;
    if (update.status !== "pending") { done = true; window.location.reload(); }
  }

  function tick() {
    var s = Math.max(cfg.seconds, 0);
    var m = Math.floor(s / 60);
    countdownEl.textContent = m + ":" + ("0" + (s % 60)).slice(-2);
    if (cfg.seconds <= 0) { statusEl.textContent = "expired"; return; }
    cfg.seconds--;
  }
  tick();
  setInterval(tick, 1000);

  function poll() {
    if (done) { return; }
    fetch(cfg.status, {headers: {"Accept": "application/json"}})
      .then(function (r) { return r.ok ? r.json() : null; })
      .then(apply)
      .catch(function () {});
  }
  setInterval(poll, cfg.poll);

  if (window.WebSocket && cfg.stream) {
    var scheme = window.location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(scheme + window.location.host + cfg.stream);
    ws.onmessage = function (e) { try { apply(JSON.parse(e.data)); } catch (err) {} };
  }
})();
</script>
</div>{{end}}` +

		`{{define "preview"}}<div class="pp-card pp-preview">
<p class="pp-muted">{{.ProductName}}</p>
<p class="pp-amount">{{.Amount}}</p>
<p class="pp-muted">Formulário de pagamento</p>
<button class="pp-button" type="button" disabled>Gerar PIX</button>
</div>{{end}}` +

		`{{define "status"}}<div class="pp-card pp-status">
{{if .Paid}}<h2>Pagamento confirmado!</h2>
<p>{{.ProductName}} · {{.Amount}}</p>
{{with .PaidAt}}<p class="pp-muted">Pago em {{.}}</p>{{end}}
{{with .SuccessMessage}}<div class="pp-success">{{.}}</div>{{end}}
{{else if .Expired}}<h2>Pagamento expirado</h2>
<p class="pp-muted">O código PIX não é mais válido.</p>
{{with .RetryURL}}<a class="pp-button" href="{{.}}">Gerar novo PIX</a>{{end}}
{{else}}<h2>Pagamento não concluído</h2>
<p class="pp-muted">A transação não foi aprovada.</p>
{{with .RetryURL}}<a class="pp-button" href="{{.}}">Tentar novamente</a>{{end}}
{{end}}
</div>{{end}}`,
))
