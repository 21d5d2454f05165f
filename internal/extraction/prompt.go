package extraction

// Prompt instructs the model to list the agent's promises as JSON.
const Prompt = `Ты анализируешь расшифровку телефонного звонка менеджера по продажам с клиентом.
Найди все обещания, которые МЕНЕДЖЕР дал клиенту: отправить документ, перезвонить,
назначить встречу, согласовать условия, уточнить информацию.

Верни только JSON без пояснений в формате:
{"commitments": [
  {"text": "<обещание дословно или близко к тексту>",
   "category": "document | call | meeting | approval | information | other",
   "deadline": "<срок так, как он прозвучал, например \"завтра до 18:00\", или \"не указан\">"}
]}

Правила:
- Не включай обещания клиента и общие фразы вежливости.
- Одно обещание на элемент, без повторов.
- Если обещаний нет, верни {"commitments": []}.`
