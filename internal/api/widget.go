package api

import (
	"html/template"
	"log"
	"net/http"
	"strconv"

	"github.com/smritilabs/chatbot-backend/internal/core"
)

// ChatbotWidgetHandler renders the embeddable chat page loaded inside the
// customer's iframe. The middleware has already validated the token and api
// key from the query string; persona overrides may also ride in on the query.
func (h *APIHandler) ChatbotWidgetHandler(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)

	q := r.URL.Query()
	persona := core.Persona{
		Name:           q.Get("name"),
		Gender:         q.Get("gender"),
		BehaviorPrompt: q.Get("behaviorPrompt"),
	}
	if age, err := strconv.Atoi(q.Get("age")); err == nil {
		persona.Age = age
	}
	if persona == (core.Persona{}) {
		stored, err := h.store.GetDefaultPersonality(user.ID)
		if err != nil {
			log.Printf("Error loading default personality for user %d: %v", user.ID, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		persona = core.PersonaFromStore(stored)
	}

	data := widgetPageData{
		Persona: persona,
		Token:   q.Get("token"),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := widgetPage.Execute(w, data); err != nil {
		log.Printf("Error rendering widget page: %v", err)
	}
}

type widgetPageData struct {
	Persona core.Persona
	Token   string
}

// html/template escapes the persona fields, so query-supplied values cannot
// inject markup into the page.
var widgetPage = template.Must(template.New("widget").Parse(`<!DOCTYPE html>
<html>
<head>
  <title>{{.Persona.Name}}</title>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <style>
    body { font-family: Arial, sans-serif; margin: 0; background: #f0f0f0; }
    #chatbot-container { background: #fff; padding: 16px; height: 100vh; box-sizing: border-box; display: flex; flex-direction: column; }
    #messages { flex: 1; overflow-y: auto; margin: 12px 0; }
    #messages div { margin-bottom: 8px; }
    #input-row { display: flex; gap: 8px; }
    #userInput { flex: 1; padding: 8px; }
  </style>
</head>
<body>
  <div id="chatbot-container">
    <h2>Hello, I am {{.Persona.Name}}!</h2>
    <div id="messages"></div>
    <div id="input-row">
      <input id="userInput" type="text" placeholder="Type your message..." />
      <button id="sendMessage">Send</button>
    </div>
  </div>
  <script>
    const authToken = {{.Token}};
    let sessionId = null;

    async function ensureSession() {
      if (sessionId) return sessionId;
      const res = await fetch('/api/chatbot/sessions', {
        method: 'POST',
        headers: {
          'Content-Type': 'application/json',
          'Authorization': 'Bearer ' + authToken
        },
        body: JSON.stringify({
          name: {{.Persona.Name}},
          gender: {{.Persona.Gender}},
          age: {{.Persona.Age}},
          behaviorPrompt: {{.Persona.BehaviorPrompt}}
        })
      });
      if (!res.ok) throw new Error('session create failed: ' + res.status);
      const data = await res.json();
      sessionId = data.sessionId;
      return sessionId;
    }

    function addMessage(prefix, text, color) {
      const messages = document.getElementById('messages');
      const div = document.createElement('div');
      div.textContent = prefix + text;
      if (color) div.style.color = color;
      messages.appendChild(div);
      messages.scrollTop = messages.scrollHeight;
    }

    document.getElementById('sendMessage').addEventListener('click', async () => {
      const input = document.getElementById('userInput');
      const userMessage = input.value.trim();
      if (!userMessage) return;
      input.value = '';
      addMessage('You: ', userMessage);

      try {
        const id = await ensureSession();
        const res = await fetch('/api/chatbot/sessions/' + id + '/messages', {
          method: 'POST',
          headers: {
            'Content-Type': 'application/json',
            'Authorization': 'Bearer ' + authToken
          },
          body: JSON.stringify({ query: userMessage })
        });
        if (!res.ok) throw new Error('response not ok: ' + res.status);
        const data = await res.json();
        addMessage('Chatbot: ', data.response);
      } catch (err) {
        console.error('Error communicating with the chatbot:', err);
        addMessage('Error: ', 'Failed to get response from chatbot', 'red');
      }
    });

    document.getElementById('userInput').addEventListener('keydown', (e) => {
      if (e.key === 'Enter') document.getElementById('sendMessage').click();
    });
  </script>
</body>
</html>
`))
